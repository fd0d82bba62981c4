package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/nekogravitycat/tour-booking-backend/internal/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) Init(ctx context.Context, bookingID, touristID string) (*payment.InitResult, error) {
	args := m.Called(ctx, bookingID, touristID)
	res, _ := args.Get(0).(*payment.InitResult)
	return res, args.Error(1)
}

func (m *mockService) HandleCallback(ctx context.Context, in payment.CallbackInput) (*payment.Payment, error) {
	args := m.Called(ctx, in)
	p, _ := args.Get(0).(*payment.Payment)
	return p, args.Error(1)
}

func (m *mockService) HandleFail(ctx context.Context, transactionID string) error {
	return m.Called(ctx, transactionID).Error(0)
}

func (m *mockService) CheckStatus(ctx context.Context, transactionID, touristID string) (*payment.Payment, error) {
	args := m.Called(ctx, transactionID, touristID)
	p, _ := args.Get(0).(*payment.Payment)
	return p, args.Error(1)
}

func setup(t *testing.T) (*gin.Engine, *mockService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := &mockService{}
	t.Cleanup(func() { svc.AssertExpectations(t) })

	deny := func(c *gin.Context) { c.AbortWithStatus(http.StatusUnauthorized) }
	r := gin.New()
	RegisterRoutes(r.Group("/v1"), NewHandler(svc, "https://app.example/"), deny, deny)
	return r, svc
}

func postForm(r http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSuccessCallbackRedirects(t *testing.T) {
	r, svc := setup(t)
	svc.On("HandleCallback", mock.Anything, payment.CallbackInput{
		TransactionID: "txn_1_b",
		Amount:        "250.00",
		Status:        "success",
		ValidationID:  "val-1",
	}).Return(&payment.Payment{Status: payment.StatusPaid}, nil).Once()

	// The query marker wins over the gateway's posted status.
	w := postForm(r, "/v1/payments/success?transactionId=txn_1_b&status=success", url.Values{
		"tran_id": {"txn_1_b"},
		"amount":  {"250.00"},
		"status":  {"VALID"},
		"val_id":  {"val-1"},
	})

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://app.example/payment/success?transactionId=txn_1_b", w.Header().Get("Location"))
}

func TestSuccessCallbackFailureRedirectsToFail(t *testing.T) {
	r, svc := setup(t)
	svc.On("HandleCallback", mock.Anything, mock.Anything).Return(nil, payment.ErrValidationFailed).Once()

	req := httptest.NewRequest(http.MethodGet, "/v1/payments/success?transactionId=txn_2_b&status=success&val_id=v", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://app.example/payment/fail?transactionId=txn_2_b", w.Header().Get("Location"))
}

func TestFailAndCancelCallbacks(t *testing.T) {
	r, svc := setup(t)
	svc.On("HandleFail", mock.Anything, "txn_3_b").Return(nil).Twice()

	w := postForm(r, "/v1/payments/fail", url.Values{"tran_id": {"txn_3_b"}})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://app.example/payment/fail?transactionId=txn_3_b", w.Header().Get("Location"))

	req := httptest.NewRequest(http.MethodGet, "/v1/payments/cancel?transactionId=txn_3_b", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://app.example/payment/cancel?transactionId=txn_3_b", w.Header().Get("Location"))
}

func TestAuthenticatedRoutesRequireAuth(t *testing.T) {
	r, _ := setup(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/payments/init", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/payments/status?transactionId=x", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
