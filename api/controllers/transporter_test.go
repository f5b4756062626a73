package controllers

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Nafis5858/Krishak/internal/delivery"
	"github.com/Nafis5858/Krishak/internal/orders"
	"github.com/Nafis5858/Krishak/internal/photos"
	"github.com/Nafis5858/Krishak/pkg/enums"
	pkgerrors "github.com/Nafis5858/Krishak/pkg/errors"
)

type testDeliveryService struct {
	assignFn  func(ctx context.Context, orderID, transporterID uuid.UUID) (*orders.OrderDTO, error)
	statusFn  func(ctx context.Context, orderID, transporterID uuid.UUID, input delivery.StatusInput) (*orders.OrderDTO, error)
	jobsFn    func(ctx context.Context, transporterID uuid.UUID) (*delivery.JobsResult, error)
	mineFn    func(ctx context.Context, transporterID uuid.UUID, input delivery.MyDeliveriesInput) (*delivery.DeliveryListResult, error)
	detailsFn func(ctx context.Context, orderID, transporterID uuid.UUID) (*orders.OrderDTO, error)
	statsFn   func(ctx context.Context, transporterID uuid.UUID) (*delivery.StatsDTO, error)
	rateFn    func(ctx context.Context, orderID, buyerID uuid.UUID, input delivery.RateInput) (*delivery.RatingResult, error)
}

func (s *testDeliveryService) AssignTransporter(ctx context.Context, orderID, transporterID uuid.UUID) (*orders.OrderDTO, error) {
	return s.assignFn(ctx, orderID, transporterID)
}

func (s *testDeliveryService) UpdateStatus(ctx context.Context, orderID, transporterID uuid.UUID, input delivery.StatusInput) (*orders.OrderDTO, error) {
	return s.statusFn(ctx, orderID, transporterID, input)
}

func (s *testDeliveryService) ListAvailableJobs(ctx context.Context, transporterID uuid.UUID) (*delivery.JobsResult, error) {
	return s.jobsFn(ctx, transporterID)
}

func (s *testDeliveryService) ListMyDeliveries(ctx context.Context, transporterID uuid.UUID, input delivery.MyDeliveriesInput) (*delivery.DeliveryListResult, error) {
	return s.mineFn(ctx, transporterID, input)
}

func (s *testDeliveryService) DeliveryDetails(ctx context.Context, orderID, transporterID uuid.UUID) (*orders.OrderDTO, error) {
	return s.detailsFn(ctx, orderID, transporterID)
}

func (s *testDeliveryService) Stats(ctx context.Context, transporterID uuid.UUID) (*delivery.StatsDTO, error) {
	return s.statsFn(ctx, transporterID)
}

func (s *testDeliveryService) RateTransporter(ctx context.Context, orderID, buyerID uuid.UUID, input delivery.RateInput) (*delivery.RatingResult, error) {
	return s.rateFn(ctx, orderID, buyerID, input)
}

type testPhotoService struct {
	uploadFn func(ctx context.Context, transporterID, orderID uuid.UUID, file io.Reader) (*photos.UploadResult, error)
}

func (s *testPhotoService) Upload(ctx context.Context, transporterID, orderID uuid.UUID, file io.Reader) (*photos.UploadResult, error) {
	return s.uploadFn(ctx, transporterID, orderID, file)
}

func TestAcceptJobPassesCallerAndOrder(t *testing.T) {
	transporterID := uuid.New()
	orderID := uuid.New()
	svc := &testDeliveryService{
		assignFn: func(_ context.Context, oid, tid uuid.UUID) (*orders.OrderDTO, error) {
			require.Equal(t, orderID, oid)
			require.Equal(t, transporterID, tid)
			return &orders.OrderDTO{ID: oid, TransporterID: &tid, DeliveryStatus: enums.DeliveryStatusAssigned}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transporter/jobs/"+orderID.String()+"/accept", nil)
	req = asActor(req, transporterID, enums.UserRoleTransporter)
	req = withURLParams(req, map[string]string{"orderId": orderID.String()})
	rec := httptest.NewRecorder()
	AcceptJob(svc, testLogger())(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, string(decodeEnvelope(t, rec).Data), `"deliveryStatus":"assigned"`)
}

func TestAcceptJobMapsDomainErrors(t *testing.T) {
	cases := map[pkgerrors.Code]int{
		pkgerrors.CodeAlreadyAssigned:  http.StatusConflict,
		pkgerrors.CodeNotAvailable:     http.StatusConflict,
		pkgerrors.CodeOutOfServiceArea: http.StatusUnprocessableEntity,
		pkgerrors.CodeNotFound:         http.StatusNotFound,
	}
	for code, status := range cases {
		svc := &testDeliveryService{
			assignFn: func(context.Context, uuid.UUID, uuid.UUID) (*orders.OrderDTO, error) {
				return nil, pkgerrors.New(code, "nope")
			},
		}
		orderID := uuid.New()
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req = asActor(req, uuid.New(), enums.UserRoleTransporter)
		req = withURLParams(req, map[string]string{"orderId": orderID.String()})
		rec := httptest.NewRecorder()
		AcceptJob(svc, testLogger())(rec, req)

		require.Equal(t, status, rec.Code, string(code))
		require.Equal(t, string(code), decodeEnvelope(t, rec).Error.Code)
	}
}

func TestAcceptJobRejectsBadOrderID(t *testing.T) {
	svc := &testDeliveryService{}
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req = asActor(req, uuid.New(), enums.UserRoleTransporter)
	req = withURLParams(req, map[string]string{"orderId": "42"})
	rec := httptest.NewRecorder()
	AcceptJob(svc, testLogger())(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateJobStatusDecodesBody(t *testing.T) {
	orderID := uuid.New()
	svc := &testDeliveryService{
		statusFn: func(_ context.Context, oid, _ uuid.UUID, input delivery.StatusInput) (*orders.OrderDTO, error) {
			require.Equal(t, enums.DeliveryStatusPicked, input.Status)
			require.Equal(t, "/uploads/deliveries/x.jpg", input.PhotoURL)
			require.Equal(t, "loaded", input.Note)
			return &orders.OrderDTO{ID: oid, DeliveryStatus: input.Status}, nil
		},
	}
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"status":"picked","note":"loaded","photo":"/uploads/deliveries/x.jpg"}`))
	req = asActor(req, uuid.New(), enums.UserRoleTransporter)
	req = withURLParams(req, map[string]string{"orderId": orderID.String()})
	rec := httptest.NewRecorder()
	UpdateJobStatus(svc, testLogger())(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, string(decodeEnvelope(t, rec).Data), "Status updated to picked")
}

func TestUpdateJobStatusRequiresStatus(t *testing.T) {
	svc := &testDeliveryService{}
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"note":"x"}`))
	req = asActor(req, uuid.New(), enums.UserRoleTransporter)
	req = withURLParams(req, map[string]string{"orderId": uuid.NewString()})
	rec := httptest.NewRecorder()
	UpdateJobStatus(svc, testLogger())(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	require.Equal(t, "is required", env.Error.Details["status"])
}

func TestMyDeliveriesParsesFilters(t *testing.T) {
	svc := &testDeliveryService{
		mineFn: func(_ context.Context, _ uuid.UUID, input delivery.MyDeliveriesInput) (*delivery.DeliveryListResult, error) {
			require.NotNil(t, input.Status)
			require.Equal(t, enums.DeliveryStatusInTransit, *input.Status)
			require.Equal(t, 5, input.Limit)
			require.Equal(t, "abc", input.Cursor)
			return &delivery.DeliveryListResult{Items: []orders.OrderDTO{}}, nil
		},
	}
	req := httptest.NewRequest(http.MethodGet, "/?status=in_transit&limit=5&cursor=abc", nil)
	req = asActor(req, uuid.New(), enums.UserRoleTransporter)
	rec := httptest.NewRecorder()
	MyDeliveries(svc, testLogger())(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	bad := httptest.NewRequest(http.MethodGet, "/?status=teleported", nil)
	bad = asActor(bad, uuid.New(), enums.UserRoleTransporter)
	rec = httptest.NewRecorder()
	MyDeliveries(svc, testLogger())(rec, bad)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTransporterStatsRequiresCaller(t *testing.T) {
	rec := httptest.NewRecorder()
	TransporterStats(&testDeliveryService{}, testLogger())(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func multipartPhoto(t *testing.T, field string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("note", "front door"))
	part, err := writer.CreateFormFile(field, "proof.png")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func TestUploadJobPhotoStreamsPart(t *testing.T) {
	content := []byte("\x89PNG\r\n\x1a\nrest-of-image")
	orderID := uuid.New()
	svc := &testPhotoService{
		uploadFn: func(_ context.Context, _, oid uuid.UUID, file io.Reader) (*photos.UploadResult, error) {
			got, err := io.ReadAll(file)
			require.NoError(t, err)
			require.Equal(t, content, got)
			return &photos.UploadResult{PhotoURL: "/uploads/deliveries/" + oid.String() + "/a.png", ContentType: "image/png", Size: int64(len(got))}, nil
		},
	}
	body, contentType := multipartPhoto(t, "photo", content)
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	req = asActor(req, uuid.New(), enums.UserRoleTransporter)
	req = withURLParams(req, map[string]string{"orderId": orderID.String()})
	rec := httptest.NewRecorder()
	UploadJobPhoto(svc, 1<<20, testLogger())(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Contains(t, string(decodeEnvelope(t, rec).Data), `"photoUrl"`)
}

func TestUploadJobPhotoRequiresPhotoField(t *testing.T) {
	svc := &testPhotoService{}
	body, contentType := multipartPhoto(t, "document", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	req = asActor(req, uuid.New(), enums.UserRoleTransporter)
	req = withURLParams(req, map[string]string{"orderId": uuid.NewString()})
	rec := httptest.NewRecorder()
	UploadJobPhoto(svc, 1<<20, testLogger())(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	plain := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("not multipart"))
	plain = asActor(plain, uuid.New(), enums.UserRoleTransporter)
	plain = withURLParams(plain, map[string]string{"orderId": uuid.NewString()})
	rec = httptest.NewRecorder()
	UploadJobPhoto(svc, 1<<20, testLogger())(rec, plain)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
