package mysql

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostel_booking/internal/domain"
)

func newMock(t *testing.T) (*Repo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db), mock
}

func q(s string) string { return regexp.QuoteMeta(s) }

func TestListHostels_DecodesRawAndPinsID(t *testing.T) {
	r, mock := newMock(t)
	mock.ExpectQuery(q(listHostelsSQL)).WillReturnRows(
		sqlmock.NewRows([]string{"id", "raw"}).
			AddRow("1", []byte(`{"name":"Oak House","price":850}`)).
			AddRow("2", []byte(`{"id":"stale","name":"Elm"}`)).
			AddRow("3", []byte(`not json`)),
	)

	got, err := r.ListHostels(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Oak House", got[0]["name"])
	assert.Equal(t, "1", got[0]["id"])
	assert.Equal(t, "2", got[1]["id"])
	assert.Equal(t, domain.RawHostel{"id": "3"}, got[2])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetHostel_NoRowsIsNotFound(t *testing.T) {
	r, mock := newMock(t)
	mock.ExpectQuery(q(getHostelSQL)).WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "raw"}))

	_, err := r.GetHostel(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpsertHostel_OnCampusStoresNullDistance(t *testing.T) {
	r, mock := newMock(t)
	h := domain.Hostel{
		ID: "1", Name: "Oak", Type: domain.TypeOnCampus, Gender: domain.GenderMale,
		Price: 850, Rating: 4.5, ReviewCount: 3,
		Distance:  domain.OnCampusDistance(),
		Featured:  true,
		Amenities: domain.NewAmenitySet("WiFi", "Laundry"),
	}
	mock.ExpectExec(q(upsertHostelSQL)).
		WithArgs("1", "Oak", "on-campus", "male", 850.0, 4.5, 3, nil, true,
			`["Laundry","WiFi"]`, `{"name":"Oak"}`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, r.UpsertHostel(context.Background(), h, domain.RawHostel{"name": "Oak"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertHostel_OffCampusStoresKm(t *testing.T) {
	r, mock := newMock(t)
	h := domain.Hostel{ID: "2", Name: "Elm", Distance: domain.DistanceKm(1.2), Amenities: domain.NewAmenitySet()}
	mock.ExpectExec(q(upsertHostelSQL)).
		WithArgs("2", "Elm", "", "", 0.0, 0.0, 0, 1.2, false, `[]`, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, r.UpsertHostel(context.Background(), h, domain.RawHostel{}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogMiss(t *testing.T) {
	r, mock := newMock(t)
	mock.ExpectExec(q(insertMissSQL)).WithArgs("9", 404, "not found").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, r.LogMiss(context.Background(), "9", 404, "not found"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBooking_AmountDueStartsAtTotal(t *testing.T) {
	r, mock := newMock(t)
	in := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	out := time.Date(2027, 6, 30, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(q(insertBookingSQL)).
		WithArgs(sqlmock.AnyArg(), "u1", "1", nil, 850.0, 850.0, "2026-09-01", "2027-06-30", "2026-09-01").
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := r.CreateBooking(context.Background(), domain.BookingRequest{
		UserID: "u1", HostelID: "1", CheckIn: in, CheckOut: out, TotalAmount: 850, NextPaymentDate: &in,
	})
	require.NoError(t, err)
	assert.Len(t, id, 36)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBooking_Error(t *testing.T) {
	r, mock := newMock(t)
	mock.ExpectExec(q(insertBookingSQL)).WillReturnError(errors.New("fk violation"))
	_, err := r.CreateBooking(context.Background(), domain.BookingRequest{UserID: "u1", HostelID: "nope"})
	assert.EqualError(t, err, "fk violation")
}

func TestListBookingsForUser_NullableColumns(t *testing.T) {
	r, mock := newMock(t)
	in := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	out := time.Date(2027, 6, 30, 0, 0, 0, 0, time.UTC)
	cols := []string{"id", "user_id", "hostel_id", "name", "room_type", "room_number", "status",
		"total_amount", "amount_paid", "amount_due", "check_in", "check_out", "next_payment_date"}
	mock.ExpectQuery(q(listBookingsForUserSQL)).WithArgs("u1").WillReturnRows(
		sqlmock.NewRows(cols).
			AddRow("b1", "u1", "1", "Oak", "single", "12A", "active", 850.0, 200.0, 650.0, in, out, in).
			AddRow("b2", "u1", "2", nil, nil, nil, "completed", nil, nil, nil, in, out, nil),
	)

	got, err := r.ListBookingsForUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Oak", got[0].HostelName)
	assert.Equal(t, "12A", got[0].RoomNumber)
	require.NotNil(t, got[0].AmountPaid)
	assert.Equal(t, 200.0, *got[0].AmountPaid)
	require.NotNil(t, got[0].NextPaymentDate)

	assert.Equal(t, "", got[1].HostelName)
	assert.Nil(t, got[1].TotalAmount)
	assert.Nil(t, got[1].NextPaymentDate)
	assert.Equal(t, "completed", got[1].Status)
}

func TestGetProfile(t *testing.T) {
	r, mock := newMock(t)
	cols := []string{"user_id", "name", "email", "phone", "student_id", "gender"}
	mock.ExpectQuery(q(getProfileSQL)).WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("u1", "Ada", nil, nil, "S-1", "Female"))
	mock.ExpectQuery(q(getProfileSQL)).WithArgs("u2").
		WillReturnError(sql.ErrNoRows)

	p, err := r.GetProfile(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.Profile{UserID: "u1", Name: "Ada", StudentID: "S-1", Gender: domain.GenderFemale}, p)

	_, err = r.GetProfile(context.Background(), "u2")
	assert.True(t, domain.IsNotFound(err))
}

func TestUpsertProfile_BlankFieldsAreNull(t *testing.T) {
	r, mock := newMock(t)
	mock.ExpectExec(q(upsertProfileSQL)).
		WithArgs("u1", "Ada", nil, nil, nil, "female").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, r.UpsertProfile(context.Background(), domain.Profile{UserID: "u1", Name: "Ada", Gender: domain.GenderFemale}))
	assert.NoError(t, mock.ExpectationsWereMet())
}
