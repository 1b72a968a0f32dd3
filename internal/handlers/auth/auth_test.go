package auth

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/GlebRadaev/akalimo/internal/domain"
	"github.com/GlebRadaev/akalimo/internal/dto"
	"github.com/GlebRadaev/akalimo/internal/service/authservice"
	"github.com/GlebRadaev/akalimo/pkg/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"
)

func NewMock(t *testing.T) (*AuthHandler, *MockService) {
	ctrl := gomock.NewController(t)
	service := NewMockService(ctrl)
	return New(service), service
}

func TestRegisterHandler(t *testing.T) {
	user := &domain.User{ID: uuid.New(), Phone: "+254712345678", Role: domain.RoleServiceProvider}
	input := authservice.RegisterInput{Phone: "+254712345678", Password: "secret", FullName: "Jane", Role: domain.RoleServiceProvider}
	body := `{"phone":"+254712345678","password":"secret","fullName":"Jane","role":"SERVICE_PROVIDER"}`

	tests := []struct {
		name          string
		body          string
		prepareMock   func(service *MockService)
		expectedCode  int
		expectedError string
	}{
		{
			name: "Successful registration",
			body: body,
			prepareMock: func(service *MockService) {
				service.EXPECT().Register(gomock.Any(), input).Return(user, nil)
				service.EXPECT().GenerateToken(user.ID, domain.RoleServiceProvider).Return("some-jwt-token", nil)
			},
			expectedCode: http.StatusCreated,
		},
		{
			name: "Phone already registered",
			body: body,
			prepareMock: func(service *MockService) {
				service.EXPECT().Register(gomock.Any(), input).Return(nil, domain.ErrAlreadyExists)
			},
			expectedCode:  http.StatusConflict,
			expectedError: "already exists",
		},
		{
			name: "Validation error",
			body: body,
			prepareMock: func(service *MockService) {
				service.EXPECT().Register(gomock.Any(), input).Return(nil, domain.Validationf("phone number is not valid"))
			},
			expectedCode:  http.StatusUnprocessableEntity,
			expectedError: "validation error: phone number is not valid",
		},
		{
			name:          "Invalid request body",
			body:          `{invalid json`,
			prepareMock:   func(*MockService) {},
			expectedCode:  http.StatusBadRequest,
			expectedError: "Invalid request body",
		},
		{
			name: "Error generating token",
			body: body,
			prepareMock: func(service *MockService) {
				service.EXPECT().Register(gomock.Any(), input).Return(user, nil)
				service.EXPECT().GenerateToken(user.ID, domain.RoleServiceProvider).Return("", errors.New("sign failed"))
			},
			expectedCode:  http.StatusInternalServerError,
			expectedError: "Error generating token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, service := NewMock(t)
			tt.prepareMock(service)

			req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			handler.Register(rec, req)

			assert.Equal(t, tt.expectedCode, rec.Code)
			if tt.expectedError != "" {
				var resp utils.Response
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
				assert.Equal(t, tt.expectedError, resp.Message)
				return
			}
			var resp dto.AuthResponseDTO
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, "some-jwt-token", resp.Token)
			assert.Equal(t, user.ID.String(), resp.UserID)
			assert.Equal(t, "Bearer some-jwt-token", rec.Header().Get("Authorization"))
		})
	}
}

func TestLoginHandler(t *testing.T) {
	user := &domain.User{ID: uuid.New(), Role: domain.RoleServiceReceiver}
	body := `{"phone":"+254712345678","password":"secret"}`

	tests := []struct {
		name         string
		body         string
		prepareMock  func(service *MockService)
		expectedCode int
	}{
		{
			name: "Successful login",
			body: body,
			prepareMock: func(service *MockService) {
				service.EXPECT().Authenticate(gomock.Any(), "+254712345678", "secret").Return(user, nil)
				service.EXPECT().GenerateToken(user.ID, domain.RoleServiceReceiver).Return("token", nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name: "Invalid credentials",
			body: body,
			prepareMock: func(service *MockService) {
				service.EXPECT().Authenticate(gomock.Any(), "+254712345678", "secret").Return(nil, authservice.ErrInvalidCredentials)
			},
			expectedCode: http.StatusUnauthorized,
		},
		{
			name: "Storage failure",
			body: body,
			prepareMock: func(service *MockService) {
				service.EXPECT().Authenticate(gomock.Any(), "+254712345678", "secret").Return(nil, domain.ErrPersistence)
			},
			expectedCode: http.StatusInternalServerError,
		},
		{
			name:         "Unknown field",
			body:         `{"login":"jane"}`,
			prepareMock:  func(*MockService) {},
			expectedCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, service := NewMock(t)
			tt.prepareMock(service)

			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			handler.Login(rec, req)

			assert.Equal(t, tt.expectedCode, rec.Code)
		})
	}
}
