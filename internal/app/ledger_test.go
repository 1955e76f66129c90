package app

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/showsewa/seat-inventory/api"
	"github.com/showsewa/seat-inventory/internal/domain"
	"github.com/showsewa/seat-inventory/internal/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type LedgerTestSuite struct {
	suite.Suite
	app        *application
	ledgerRepo *mocks.MockLedgerRepo
}

func (s *LedgerTestSuite) SetupTest() {
	s.ledgerRepo = new(mocks.MockLedgerRepo)

	s.app = newTestApplication(func(a *application) {
		a.ledgerRepo = s.ledgerRepo
	})
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerTestSuite))
}

func (s *LedgerTestSuite) TestProvisionShowing() {
	validBody := api.ProvisionShowingRequest{
		ShowingId: 1,
		TheaterId: 10,
		Screen:    "Screen 1",
		StartsAt:  testStart.Add(48 * time.Hour),
		Seats: []api.ProvisionSeat{
			{SeatId: "A1", Category: "STANDARD", Price: decimal.NewFromInt(350)},
			{SeatId: "A2", Category: "PREMIUM", Price: decimal.NewFromInt(550)},
		},
	}

	tests := []struct {
		name       string
		body       any
		setupMocks func()
		wantStatus int
	}{
		{
			name: "should provision showing with valid input",
			body: validBody,
			setupMocks: func() {
				s.ledgerRepo.On(
					"ProvisionShowing",
					mock.Anything,
					domain.Showing{ID: 1, TheaterID: 10, Screen: "Screen 1", StartsAt: validBody.StartsAt},
					[]domain.SeatLayout{
						{SeatID: "A1", Category: "STANDARD", Price: decimal.NewFromInt(350)},
						{SeatID: "A2", Category: "PREMIUM", Price: decimal.NewFromInt(550)},
					},
				).Return(nil)
			},
			wantStatus: http.StatusCreated,
		},
		{
			name: "should fail when showing already exists",
			body: validBody,
			setupMocks: func() {
				s.ledgerRepo.On("ProvisionShowing", mock.Anything, mock.Anything, mock.Anything).
					Return(domain.ErrShowingExists)
			},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "should fail validation without seats",
			body:       api.ProvisionShowingRequest{ShowingId: 1, TheaterId: 10, StartsAt: testStart},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "should fail on malformed body",
			body:       "not-json-object",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()

			defer s.ledgerRepo.AssertExpectations(s.T())

			if tt.setupMocks != nil {
				tt.setupMocks()
			}

			w := executeRequest(s.T(), s.app, http.MethodPost, "/showings", tt.body)

			s.Equal(tt.wantStatus, w.Code)
		})
	}
}

func (s *LedgerTestSuite) TestGetLedgerSnapshot() {
	seats := []domain.SeatRecord{
		{SeatID: "A1", State: domain.SeatAvailable, Category: "STANDARD", Version: 1},
		{SeatID: "A2", State: domain.SeatHeld, Category: "STANDARD", HoldExpiresAt: testStart.Add(5 * time.Minute), Version: 2},
		{SeatID: "A3", State: domain.SeatSold, Category: "PREMIUM", BookingReference: "REF123", Version: 3},
		{SeatID: "A4", State: domain.SeatBlocked, Category: "STANDARD", Version: 2},
	}

	s.Run("should return snapshot with per-state counts", func() {
		s.SetupTest()

		s.ledgerRepo.On("GetSeats", mock.Anything, int64(1)).Return(seats, nil)

		w := executeRequest(s.T(), s.app, http.MethodGet, "/showings/1/seats", nil)

		s.Equal(http.StatusOK, w.Code)

		var resp api.LedgerSnapshotResponse
		s.Require().NoError(json.NewDecoder(w.Body).Decode(&resp))

		s.Equal(int64(1), resp.ShowingId)
		s.Len(resp.Seats, 4)
		s.Equal(1, resp.Available)
		s.Equal(1, resp.Held)
		s.Equal(1, resp.Sold)
		s.Equal(1, resp.Blocked)

		s.Nil(resp.Seats[0].HoldExpiresAt)
		s.NotNil(resp.Seats[1].HoldExpiresAt)
		s.Empty(resp.Seats[1].BookingReference)
		s.Equal("REF123", resp.Seats[2].BookingReference)
	})

	s.Run("should fail for unknown showing", func() {
		s.SetupTest()

		s.ledgerRepo.On("GetSeats", mock.Anything, int64(99)).Return(nil, domain.ErrRecordNotFound)

		w := executeRequest(s.T(), s.app, http.MethodGet, "/showings/99/seats", nil)

		s.Equal(http.StatusNotFound, w.Code)
	})
}

func (s *LedgerTestSuite) TestBlockAndUnblockSeats() {
	tests := []struct {
		name       string
		url        string
		body       any
		setupMocks func()
		wantStatus int
	}{
		{
			name: "should block available seats",
			url:  "/showings/1/seats/block",
			body: api.SeatSelectionRequest{SeatIds: []string{"A1", "A2"}},
			setupMocks: func() {
				s.ledgerRepo.On("BlockSeats", mock.Anything, int64(1), []string{"A1", "A2"}).Return(nil)
			},
			wantStatus: http.StatusNoContent,
		},
		{
			name: "should unblock blocked seats",
			url:  "/showings/1/seats/unblock",
			body: api.SeatSelectionRequest{SeatIds: []string{"A1"}},
			setupMocks: func() {
				s.ledgerRepo.On("UnblockSeats", mock.Anything, int64(1), []string{"A1"}).Return(nil)
			},
			wantStatus: http.StatusNoContent,
		},
		{
			name: "should fail blocking a sold seat",
			url:  "/showings/1/seats/block",
			body: api.SeatSelectionRequest{SeatIds: []string{"A3"}},
			setupMocks: func() {
				s.ledgerRepo.On("BlockSeats", mock.Anything, int64(1), []string{"A3"}).
					Return(&domain.SeatUnavailableError{ShowingID: 1, SeatIDs: []string{"A3"}})
			},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "should fail validation without seats",
			url:        "/showings/1/seats/block",
			body:       api.SeatSelectionRequest{},
			wantStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()

			defer s.ledgerRepo.AssertExpectations(s.T())

			if tt.setupMocks != nil {
				tt.setupMocks()
			}

			w := executeRequest(s.T(), s.app, http.MethodPost, tt.url, tt.body)

			s.Equal(tt.wantStatus, w.Code)
		})
	}
}
