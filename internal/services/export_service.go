package services

import (
	"context"
	"fmt"
	"io"

	"bms/internal/models"
	"bms/internal/repositories"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

const (
	rosterSheet  = "Flats"
	summarySheet = "Summary"
)

var rosterHeader = []interface{}{
	"Flat", "Floor", "Unit", "Status", "Owner", "Owner phone", "Lessee", "Lessee phone", "Parking spot", "Remarks",
}

// ExportService writes the flat roster as an XLSX workbook.
type ExportService interface {
	WriteRoster(ctx context.Context, w io.Writer) error
}

type exportService struct {
	store repositories.Store
}

func NewExportService(store repositories.Store) ExportService {
	return &exportService{store: store}
}

func (s *exportService) WriteRoster(ctx context.Context, w io.Writer) error {
	rows, counts, err := s.rosterRows(ctx)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", rosterSheet); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	if err := f.SetSheetRow(rosterSheet, "A1", &rosterHeader); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(rosterSheet, cell, &row); err != nil {
			return err
		}
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(rosterHeader), 1)
	if err := f.SetCellStyle(rosterSheet, "A1", lastHeader, bold); err != nil {
		return err
	}
	if err := f.SetColWidth(rosterSheet, "A", "J", 16); err != nil {
		return err
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}
	summary := [][]interface{}{
		{"Status", "Flats"},
		{models.StatusOwnerOccupied.Label(), counts[models.StatusOwnerOccupied]},
		{models.StatusRented.Label(), counts[models.StatusRented]},
		{models.StatusVacant.Label(), counts[models.StatusVacant]},
		{"Total", len(rows)},
	}
	for i, row := range summary {
		row := row
		if err := f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", i+1), &row); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(summarySheet, "A1", "B1", bold); err != nil {
		return err
	}

	_, err = f.WriteTo(w)
	return err
}

func (s *exportService) rosterRows(ctx context.Context) ([][]interface{}, map[models.FlatStatus]int, error) {
	repos := s.store.Repos()
	flats, err := repos.Flats.ListAll(ctx)
	if err != nil {
		return nil, nil, err
	}
	owners, err := activeParties(ctx, repos.Ownerships, repos.Owners)
	if err != nil {
		return nil, nil, err
	}
	lessees, err := activeParties(ctx, repos.Tenancies, repos.Lessees)
	if err != nil {
		return nil, nil, err
	}
	spots, err := repos.Spots.List(ctx, 0, 0)
	if err != nil {
		return nil, nil, err
	}
	spotByFlat := make(map[uuid.UUID]string, len(spots))
	for _, sp := range spots {
		if sp.FlatID != nil {
			spotByFlat[*sp.FlatID] = sp.Code
		}
	}

	counts := make(map[models.FlatStatus]int)
	rows := make([][]interface{}, 0, len(flats))
	for _, f := range flats {
		counts[f.Status]++
		row := []interface{}{f.Code(), f.Floor, f.Unit, f.Status.Label(), "", "", "", "", spotByFlat[f.ID], f.Remarks}
		if o := owners[f.ID]; o != nil {
			row[4], row[5] = o.Name, o.Phone
		}
		if l := lessees[f.ID]; l != nil {
			row[6], row[7] = l.Name, l.Phone
		}
		rows = append(rows, row)
	}
	return rows, counts, nil
}

func activeParties(ctx context.Context, tenures repositories.TenureRepository, people repositories.PersonRepository) (map[uuid.UUID]*models.Person, error) {
	active, err := tenures.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]*models.Person, len(active))
	for _, t := range active {
		if _, seen := out[t.FlatID]; seen {
			continue
		}
		p, err := people.GetByID(ctx, t.PartyID)
		if err != nil {
			return nil, err
		}
		out[t.FlatID] = p
	}
	return out, nil
}
