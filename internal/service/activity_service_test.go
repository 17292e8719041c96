package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fcs-go-api/internal/repository"
)

func TestActivityServiceRecordNormalizesFields(t *testing.T) {
	db := openTestDB(t)
	svc := NewActivityService(repository.NewActivityLogRepository(db), zerolog.Nop())

	entry, err := svc.Record(context.Background(), ActivityEntry{
		ActorID:    " SYS-ADMIN ",
		ActorRole:  "Admin",
		Action:     "Student.Upserted",
		EntityType: "Student",
		EntityID:   "S-100",
		Metadata:   map[string]interface{}{"class": "XI-A"},
	})
	require.NoError(t, err)
	require.Equal(t, "SYS-ADMIN", entry.ActorID)
	require.Equal(t, "admin", entry.ActorRole)
	require.Equal(t, "student.upserted", entry.Action)
	require.Equal(t, "student", entry.EntityType)
	require.Equal(t, "XI-A", entry.Metadata["class"])
}

func TestActivityServiceRecordRequiresAction(t *testing.T) {
	db := openTestDB(t)
	svc := NewActivityService(repository.NewActivityLogRepository(db), zerolog.Nop())

	_, err := svc.Record(context.Background(), ActivityEntry{EntityType: "student"})
	require.Error(t, err)

	_, err = svc.Record(context.Background(), ActivityEntry{Action: "student.upserted"})
	require.Error(t, err)
}

func TestActivityServiceListFilters(t *testing.T) {
	db := openTestDB(t)
	svc := NewActivityService(repository.NewActivityLogRepository(db), zerolog.Nop())
	ctx := context.Background()

	for _, action := range []string{"student.upserted", "student.purged", "system.initialized"} {
		_, err := svc.Record(ctx, ActivityEntry{
			ActorID:    "SYS-ADMIN",
			ActorRole:  "admin",
			Action:     action,
			EntityType: "student",
		})
		require.NoError(t, err)
	}

	all, err := svc.List(ctx, repository.ActivityLogFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)

	purged, err := svc.List(ctx, repository.ActivityLogFilter{Action: "student.purged"})
	require.NoError(t, err)
	require.Len(t, purged, 1)
	require.Equal(t, "student.purged", purged[0].Action)
}
