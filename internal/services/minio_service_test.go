package services

import (
	"context"
	"errors"
	"io"
	"net/url"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type MockObjectClient struct {
	mock.Mock
}

func (m *MockObjectClient) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	body, _ := io.ReadAll(reader)
	args := m.Called(ctx, bucketName, objectName, string(body), objectSize, opts.ContentType)
	return minio.UploadInfo{}, args.Error(0)
}

func (m *MockObjectClient) PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error) {
	args := m.Called(ctx, bucketName, objectName, expires)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*url.URL), args.Error(1)
}

func (m *MockObjectClient) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	args := m.Called(ctx, bucketName)
	return args.Bool(0), args.Error(1)
}

func (m *MockObjectClient) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	args := m.Called(ctx, bucketName)
	return args.Error(0)
}

type MinioArchiveTestSuite struct {
	suite.Suite
	ctx     context.Context
	client  *MockObjectClient
	service ArchiveService
}

func (suite *MinioArchiveTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.client = &MockObjectClient{}
	suite.service = &minioArchive{client: suite.client, bucket: "bms-imports"}
}

func (suite *MinioArchiveTestSuite) TearDownTest() {
	suite.client.AssertExpectations(suite.T())
}

func TestMinioArchiveTestSuite(t *testing.T) {
	suite.Run(t, new(MinioArchiveTestSuite))
}

func (suite *MinioArchiveTestSuite) TestArchive_Success() {
	body := []byte(`{"result":{}}`)
	suite.client.On("PutObject", suite.ctx, "bms-imports", "imports/2026/01/01/x.json", string(body), int64(len(body)), "application/json").
		Return(nil).Once()

	err := suite.service.Archive(suite.ctx, "imports/2026/01/01/x.json", body, "application/json")
	assert.NoError(suite.T(), err)
}

func (suite *MinioArchiveTestSuite) TestArchive_WrapsFailure() {
	suite.client.On("PutObject", suite.ctx, "bms-imports", "k", "", int64(0), "text/plain").
		Return(errors.New("NoSuchBucket")).Once()

	err := suite.service.Archive(suite.ctx, "k", nil, "text/plain")
	assert.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "bms-imports/k")
	assert.Contains(suite.T(), err.Error(), "NoSuchBucket")
}

func (suite *MinioArchiveTestSuite) TestGetPresignedURL() {
	u, _ := url.Parse("https://minio.local/bms-imports/k?sig=1")
	suite.client.On("PresignedGetObject", suite.ctx, "bms-imports", "k", time.Hour).Return(u, nil).Once()

	got, err := suite.service.GetPresignedURL(suite.ctx, "k", time.Hour)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), u.String(), got)
}

func (suite *MinioArchiveTestSuite) TestEnsureBucketExists_Creates() {
	suite.client.On("BucketExists", suite.ctx, "bms-imports").Return(false, nil).Once()
	suite.client.On("MakeBucket", suite.ctx, "bms-imports").Return(nil).Once()

	assert.NoError(suite.T(), suite.service.EnsureBucketExists(suite.ctx))
}

func (suite *MinioArchiveTestSuite) TestEnsureBucketExists_AlreadyThere() {
	suite.client.On("BucketExists", suite.ctx, "bms-imports").Return(true, nil).Once()

	assert.NoError(suite.T(), suite.service.EnsureBucketExists(suite.ctx))
}

func (suite *MinioArchiveTestSuite) TestEnsureBucketExists_Error() {
	suite.client.On("BucketExists", suite.ctx, "bms-imports").Return(false, errors.New("connection refused")).Once()

	assert.Error(suite.T(), suite.service.EnsureBucketExists(suite.ctx))
}
