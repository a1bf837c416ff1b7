package notification

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"course-enrollment-backend/internal/db"
	"course-enrollment-backend/internal/model"
)

// mockSender records deliveries and answers with a fixed status code.
type mockSender struct {
	mu       sync.Mutex
	status   int
	payloads []string
	targets  []string
	sent     chan struct{}
}

func newMockSender(status int) *mockSender {
	return &mockSender{status: status, sent: make(chan struct{}, 16)}
}

func (m *mockSender) Send(payload []byte, sub *webpush.Subscription, _ *webpush.Options) (*http.Response, error) {
	m.mu.Lock()
	m.payloads = append(m.payloads, string(payload))
	m.targets = append(m.targets, sub.Endpoint)
	m.mu.Unlock()
	m.sent <- struct{}{}
	return &http.Response{StatusCode: m.status, Body: io.NopCloser(bytes.NewReader(nil))}, nil
}

func (m *mockSender) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.payloads)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	testDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := testDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(testDB))
	return testDB
}

func seedEnrollment(t *testing.T, testDB *gorm.DB, userID string) *model.Enrollment {
	t.Helper()
	course := model.Course{
		Code: "CS101", Name: "Intro to Computer Science", Credits: 3,
		MaxCapacity: 30, StartMinute: 480, EndMinute: 600, Active: true,
	}
	require.NoError(t, testDB.Create(&course).Error)

	enrollment := model.Enrollment{
		CourseID: course.ID, UserID: userID,
		State: model.StateConfirmed, CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, testDB.Create(&enrollment).Error)
	return &enrollment
}

func TestNotify_SendsPerSubscription(t *testing.T) {
	testDB := newTestDB(t)
	enrollment := seedEnrollment(t, testDB, "student-1")
	for i := 0; i < 2; i++ {
		sub := model.PushSubscription{
			Endpoint: fmt.Sprintf("https://push.example.com/%d", i),
			P256DH:   "key", Auth: "secret", UserID: "student-1",
		}
		require.NoError(t, testDB.Create(&sub).Error)
	}

	sender := newMockSender(http.StatusCreated)
	wp := NewWorkerPool(1, testDB, &webpush.Options{})
	wp.SetSender(sender)

	wp.notify(context.Background(), Event{EnrollmentID: enrollment.ID, State: model.StateConfirmed})

	require.Equal(t, 2, sender.count())
	assert.Contains(t, sender.payloads[0], "CS101")
	assert.Contains(t, sender.payloads[0], "confirmed")
}

func TestNotify_CancelledMessage(t *testing.T) {
	testDB := newTestDB(t)
	enrollment := seedEnrollment(t, testDB, "student-1")
	sub := model.PushSubscription{
		Endpoint: "https://push.example.com/1",
		P256DH:   "key", Auth: "secret", UserID: "student-1",
	}
	require.NoError(t, testDB.Create(&sub).Error)

	sender := newMockSender(http.StatusCreated)
	wp := NewWorkerPool(1, testDB, &webpush.Options{})
	wp.SetSender(sender)

	wp.notify(context.Background(), Event{EnrollmentID: enrollment.ID, State: model.StateCancelled})

	require.Equal(t, 1, sender.count())
	assert.Contains(t, sender.payloads[0], "cancelled")
}

func TestNotify_NoSubscriptions(t *testing.T) {
	testDB := newTestDB(t)
	enrollment := seedEnrollment(t, testDB, "student-1")

	sender := newMockSender(http.StatusCreated)
	wp := NewWorkerPool(1, testDB, &webpush.Options{})
	wp.SetSender(sender)

	wp.notify(context.Background(), Event{EnrollmentID: enrollment.ID, State: model.StateConfirmed})
	assert.Zero(t, sender.count())
}

func TestNotify_PendingIsNotNotified(t *testing.T) {
	testDB := newTestDB(t)
	enrollment := seedEnrollment(t, testDB, "student-1")
	sub := model.PushSubscription{
		Endpoint: "https://push.example.com/1",
		P256DH:   "key", Auth: "secret", UserID: "student-1",
	}
	require.NoError(t, testDB.Create(&sub).Error)

	sender := newMockSender(http.StatusCreated)
	wp := NewWorkerPool(1, testDB, &webpush.Options{})
	wp.SetSender(sender)

	wp.notify(context.Background(), Event{EnrollmentID: enrollment.ID, State: model.StatePending})
	assert.Zero(t, sender.count())
}

// TestNotify_FetchErrorSkipsDelivery drives the fetch through a failing
// connection; a broken read must never reach the push service.
func TestNotify_FetchErrorSkipsDelivery(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT (.+) FROM "enrollments"`).
		WillReturnError(fmt.Errorf("connection reset"))

	sender := newMockSender(http.StatusCreated)
	wp := NewWorkerPool(1, gormDB, &webpush.Options{})
	wp.SetSender(sender)

	wp.notify(context.Background(), Event{EnrollmentID: 1, State: model.StateConfirmed})

	assert.Zero(t, sender.count())
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestSend_DeletesGoneSubscription checks the 410 cleanup path.
func TestSend_DeletesGoneSubscription(t *testing.T) {
	testDB := newTestDB(t)
	sub := model.PushSubscription{
		Endpoint: "https://push.example.com/expired",
		P256DH:   "key", Auth: "secret", UserID: "student-1",
	}
	require.NoError(t, testDB.Create(&sub).Error)

	sender := newMockSender(http.StatusGone)
	wp := NewWorkerPool(1, testDB, &webpush.Options{})
	wp.SetSender(sender)

	wp.send(context.Background(), sub, []byte("message"))

	var count int64
	require.NoError(t, testDB.Model(&model.PushSubscription{}).Count(&count).Error)
	assert.Zero(t, count, "a Gone subscription must be removed")
}

func TestWorkerPool_DispatchDelivers(t *testing.T) {
	testDB := newTestDB(t)
	enrollment := seedEnrollment(t, testDB, "student-1")
	sub := model.PushSubscription{
		Endpoint: "https://push.example.com/1",
		P256DH:   "key", Auth: "secret", UserID: "student-1",
	}
	require.NoError(t, testDB.Create(&sub).Error)

	sender := newMockSender(http.StatusCreated)
	wp := NewWorkerPool(2, testDB, &webpush.Options{})
	wp.SetSender(sender)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Start(ctx)

	wp.Dispatch(Event{EnrollmentID: enrollment.ID, State: model.StateConfirmed})

	select {
	case <-sender.sent:
	case <-time.After(5 * time.Second):
		t.Fatal("notification was never delivered")
	}
	assert.Equal(t, "https://push.example.com/1", sender.targets[0])
}
