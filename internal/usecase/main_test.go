package usecase

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"movie-booking/internal/data/entity"
	"movie-booking/internal/data/repository"
	"movie-booking/pkg/database"
	"movie-booking/pkg/database/dbtest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"go.uber.org/zap/zaptest"
)

// Postgres starts on first use so the in-memory tests never wait for docker.
var pg struct {
	once      sync.Once
	db        database.PgxIface
	container testcontainers.Container
	err       error
}

func TestMain(m *testing.M) {
	flag.Parse()
	code := m.Run()

	if pg.db != nil {
		pg.db.Close()
	}
	if pg.container != nil {
		_ = pg.container.Terminate(context.Background())
	}
	os.Exit(code)
}

func postgresDB(t *testing.T) database.PgxIface {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres tests skipped in short mode")
	}

	pg.once.Do(func() {
		ctx := context.Background()

		connStr := os.Getenv("POSTGRES_URL")
		if connStr == "" {
			container, url, err := dbtest.StartPostgresContainer(ctx)
			if err != nil {
				pg.err = err
				return
			}
			pg.container = container
			connStr = url
		}

		db, err := database.Connect(ctx, connStr, 20)
		if err != nil {
			pg.err = fmt.Errorf("connect: %w", err)
			return
		}
		if err := database.Migrate(ctx, db); err != nil {
			db.Close()
			pg.err = fmt.Errorf("migrate: %w", err)
			return
		}
		pg.db = db
	})

	if pg.db == nil {
		t.Skipf("postgres not available: %v", pg.err)
	}
	return pg.db
}

type pgEnv struct {
	db       database.PgxIface
	service  *Service
	gateway  *fakeGateway
	showtime *entity.Showtime
	seats    map[string]*entity.Seat
}

// newPostgresEnv wires the service over a real database with one fresh
// showtime and seats A1..A3 at 12.00.
func newPostgresEnv(t *testing.T) *pgEnv {
	t.Helper()
	db := postgresDB(t)
	log := zaptest.NewLogger(t)
	repo := repository.NewRepository(db, log)

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	screenID := uuid.New()

	showtime := &entity.Showtime{
		Base:      entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		MovieID:   uuid.New(),
		ScreenID:  screenID,
		StartsAt:  now.Add(48 * time.Hour),
		BasePrice: 12,
	}
	require.NoError(t, repo.Showtime.Create(ctx, showtime))

	env := &pgEnv{
		db:       db,
		gateway:  &fakeGateway{},
		showtime: showtime,
		seats:    map[string]*entity.Seat{},
	}

	seats := make([]*entity.Seat, 0, 3)
	for i := 1; i <= 3; i++ {
		seat := &entity.Seat{
			Base:        entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
			ScreenID:    screenID,
			RowLabel:    "A",
			ColumnIndex: i,
			SeatNumber:  fmt.Sprintf("A%d", i),
			SeatClass:   entity.SeatClassStandard,
			Price:       12,
			IsActive:    true,
		}
		seats = append(seats, seat)
		env.seats[seat.SeatNumber] = seat
	}
	require.NoError(t, repo.Seat.CreateBatch(ctx, seats))

	cfg := testConfig()
	cfg.Database.QueryTimeout = 10 * time.Second
	env.service = NewService(repo, Dependencies{Gateway: env.gateway}, cfg, log)

	return env
}

func (e *pgEnv) bookedSeatCount(t *testing.T) int {
	t.Helper()
	var n int
	require.NoError(t, e.db.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM booked_seats WHERE showtime_id = $1`, e.showtime.ID).Scan(&n))
	return n
}

func (e *pgEnv) paidBookingCount(t *testing.T) int {
	t.Helper()
	var n int
	require.NoError(t, e.db.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM bookings WHERE showtime_id = $1 AND payment_status = $2`,
		e.showtime.ID, string(entity.PaymentStatusCompleted)).Scan(&n))
	return n
}
