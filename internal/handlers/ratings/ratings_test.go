package ratings

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/GlebRadaev/akalimo/internal/domain"
	"github.com/GlebRadaev/akalimo/internal/dto"
	"github.com/GlebRadaev/akalimo/pkg/auth"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"
)

func router(t *testing.T, userID uuid.UUID) (chi.Router, *MockService) {
	ctrl := gomock.NewController(t)
	service := NewMockService(ctrl)
	h := New(service)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(auth.WithIdentity(req.Context(), userID, "")))
		})
	})
	r.Post("/api/ratings", h.SubmitRating)
	r.Get("/api/users/{userID}/ratings", h.ListUserRatings)
	return r, service
}

func TestSubmitRating(t *testing.T) {
	raterID, rateeID, orderID := uuid.New(), uuid.New(), uuid.New()
	body := `{"orderId":"` + orderID.String() + `","score":5,"comment":"Quick and tidy"}`

	tests := []struct {
		name         string
		body         string
		returnErr    error
		expectCall   bool
		expectedCode int
	}{
		{name: "Rated", body: body, expectCall: true, expectedCode: http.StatusCreated},
		{name: "Rated twice", body: body, expectCall: true, returnErr: domain.ErrAlreadyRated, expectedCode: http.StatusConflict},
		{name: "Outsider", body: body, expectCall: true, returnErr: domain.ErrUnauthorized, expectedCode: http.StatusForbidden},
		{name: "Out of range", body: body, expectCall: true, returnErr: domain.Validationf("score must be between 1 and 5"), expectedCode: http.StatusUnprocessableEntity},
		{name: "Malformed", body: `{"score":"five"}`, expectedCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, service := router(t, raterID)
			if tt.expectCall {
				var rating *domain.Rating
				if tt.returnErr == nil {
					rating = &domain.Rating{ID: uuid.New(), OrderID: orderID, RaterID: raterID, RateeID: rateeID, Score: 5, Comment: "Quick and tidy"}
				}
				service.EXPECT().Submit(gomock.Any(), orderID, raterID, 5, "Quick and tidy").Return(rating, tt.returnErr)
			}

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/ratings", bytes.NewBufferString(tt.body)))
			require.Equal(t, tt.expectedCode, rec.Code)

			if tt.expectedCode == http.StatusCreated {
				var resp dto.RatingDTO
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
				assert.Equal(t, rateeID, resp.RateeID)
			}
		})
	}
}

func TestListUserRatings(t *testing.T) {
	callerID, userID := uuid.New(), uuid.New()
	r, service := router(t, callerID)
	service.EXPECT().ListForUser(gomock.Any(), userID).Return(&domain.RatingSummary{
		UserID:  userID,
		Average: 4.5,
		Count:   2,
		Ratings: []domain.Rating{{ID: uuid.New(), RateeID: userID, Score: 5}, {ID: uuid.New(), RateeID: userID, Score: 4}},
	}, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users/"+userID.String()+"/ratings", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.RatingSummaryDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 4.5, resp.Average)
	assert.Equal(t, 2, resp.Count)
	assert.Len(t, resp.Ratings, 2)
}
