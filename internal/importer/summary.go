package importer

import "fmt"

// Message renders counters as the one-line summary shown after an import.
func Message(c Counters, dryRun bool) string {
	verbs := [5]string{"Created", "updated", "created", "ended", "changed"}
	if dryRun {
		verbs = [5]string{"Would create", "update", "create", "end", "change"}
	}
	msg := fmt.Sprintf("%s %d owner(s), %s %d owner(s), %s %d ownership(s), %s %d ownership(s), %s %d status(es); skipped %d row(s)",
		verbs[0], c.OwnersCreated,
		verbs[1], c.OwnersUpdated,
		verbs[2], c.OwnershipsCreated,
		verbs[3], c.OwnershipsEnded,
		verbs[4], c.StatusChanged,
		c.Skipped)
	if c.Conflicts > 0 {
		msg += fmt.Sprintf("; %d conflicting row(s)", c.Conflicts)
	}
	return msg
}
