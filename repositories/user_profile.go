package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gocql/gocql"
	"github.com/scylladb/gocqlx/v2"
	"github.com/scylladb/gocqlx/v2/qb"
	"github.com/skif48/wellness-engine/app_config"
	"github.com/skif48/wellness-engine/entities"
	"github.com/skif48/wellness-engine/leveling"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
	ErrContention   = errors.New("progress update kept conflicting")
)

const maxProgressCasAttempts = 16

var profileColumns = []string{"id", "name", "email", "avatar", "bio", "xp", "level", "created_at"}

// ProgressFunc computes the next progress from the stored one.
type ProgressFunc func(leveling.UserProgress) (leveling.UserProgress, error)

type UserProfileRepository interface {
	SignUp(ctx context.Context, r *entities.CreateUserProfileDto) (*entities.UserProfile, error)
	GetCredentials(ctx context.Context, email string) (*entities.Credentials, error)
	GetManyUserProfiles(ctx context.Context, userIds []string) ([]*entities.UserProfile, error)
	GetUserProfile(ctx context.Context, userId string) (*entities.UserProfile, error)
	UpdateProfile(ctx context.Context, userId string, r *entities.UpdateUserProfileDto) (*entities.UserProfile, error)
	UpdateProgress(ctx context.Context, userId string, fn ProgressFunc) (before, after leveling.UserProgress, err error)
	Purge(ctx context.Context) error
}

type UserProfileRepositoryScylla struct {
	scyllaClient *gocqlx.Session

	profileTable string
	emailTable   string
}

func NewUserProfileRepository(ac *app_config.AppConfig, session *gocqlx.Session) UserProfileRepository {
	u := &UserProfileRepositoryScylla{
		scyllaClient: session,
		profileTable: ac.ScyllaKeyspace + ".user_profile",
		emailTable:   ac.ScyllaKeyspace + ".user_by_email",
	}

	err := session.ExecStmt(fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id uuid,
		name text,
		email text,
		avatar text,
		bio text,
		xp int,
		level int,
		created_at timestamp,
		PRIMARY KEY (id))`, u.profileTable))
	if err != nil {
		panic(err)
	}
	err = session.ExecStmt(fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		email text,
		id uuid,
		password_hash text,
		PRIMARY KEY (email))`, u.emailTable))
	if err != nil {
		panic(err)
	}
	return u
}

// SignUp claims the e-mail with a lightweight transaction before writing the profile.
func (u *UserProfileRepositoryScylla) SignUp(ctx context.Context, r *entities.CreateUserProfileDto) (*entities.UserProfile, error) {
	id, err := gocql.RandomUUID()
	if err != nil {
		return nil, err
	}

	claim := u.scyllaClient.Query(
		fmt.Sprintf(`INSERT INTO %s (email,id,password_hash) VALUES (?,?,?) IF NOT EXISTS`, u.emailTable), nil).
		WithContext(ctx).
		Bind(r.Email, id, r.PasswordHash)
	applied, err := claim.MapScanCAS(map[string]interface{}{})
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, ErrEmailTaken
	}

	createdAt := time.Now()
	profile := &entities.UserProfile{
		Id:        id.String(),
		Name:      r.Name,
		Email:     r.Email,
		Avatar:    entities.DefaultAvatar(id.String()),
		Xp:        r.Progress.Xp,
		Level:     r.Progress.Level,
		CreatedAt: createdAt.UnixMilli(),
	}
	stmt, names := qb.Insert(u.profileTable).Columns(profileColumns...).ToCql()
	q := u.scyllaClient.Query(stmt, names).WithContext(ctx).
		BindMap(map[string]interface{}{
			"id":         id,
			"name":       profile.Name,
			"email":      profile.Email,
			"avatar":     profile.Avatar,
			"bio":        profile.Bio,
			"xp":         profile.Xp,
			"level":      profile.Level,
			"created_at": createdAt,
		})
	if err := q.ExecRelease(); err != nil {
		return nil, err
	}
	return profile, nil
}

func (u *UserProfileRepositoryScylla) GetCredentials(ctx context.Context, email string) (*entities.Credentials, error) {
	creds := &entities.Credentials{}
	q := u.scyllaClient.Query(fmt.Sprintf(`SELECT email, id, password_hash FROM %s WHERE email = ?`, u.emailTable), nil).
		WithContext(ctx).
		Bind(email)
	if err := q.GetRelease(creds); err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return creds, nil
}

func (u *UserProfileRepositoryScylla) GetManyUserProfiles(ctx context.Context, userIds []string) ([]*entities.UserProfile, error) {
	if len(userIds) == 0 {
		return nil, nil
	}
	uuids := make([]gocql.UUID, len(userIds))
	for i, userIdStr := range userIds {
		uuid, err := gocql.ParseUUID(userIdStr)
		if err != nil {
			return nil, fmt.Errorf("invalid UUID format for user ID %s: %w", userIdStr, err)
		}
		uuids[i] = uuid
	}

	stmt, names := qb.Select(u.profileTable).Columns(profileColumns...).Where(qb.In("id")).ToCql()
	q := u.scyllaClient.Query(stmt, names).WithContext(ctx).BindMap(qb.M{"id": uuids})

	var userProfiles []*entities.UserProfile
	if err := q.SelectRelease(&userProfiles); err != nil {
		return nil, err
	}
	return userProfiles, nil
}

// GetUserProfile returns nil without an error when the user does not exist.
func (u *UserProfileRepositoryScylla) GetUserProfile(ctx context.Context, userId string) (*entities.UserProfile, error) {
	id, err := gocql.ParseUUID(userId)
	if err != nil {
		return nil, nil
	}
	userProfile := &entities.UserProfile{}
	stmt, names := qb.Select(u.profileTable).Columns(profileColumns...).Where(qb.Eq("id")).ToCql()
	q := u.scyllaClient.Query(stmt, names).WithContext(ctx).BindMap(qb.M{"id": id})
	if err := q.GetRelease(userProfile); err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return userProfile, nil
}

func (u *UserProfileRepositoryScylla) UpdateProfile(ctx context.Context, userId string, r *entities.UpdateUserProfileDto) (*entities.UserProfile, error) {
	id, err := gocql.ParseUUID(userId)
	if err != nil {
		return nil, ErrUserNotFound
	}
	values := qb.M{"id": id}
	var columns []string
	if r.Name != nil {
		columns, values["name"] = append(columns, "name"), *r.Name
	}
	if r.Bio != nil {
		columns, values["bio"] = append(columns, "bio"), *r.Bio
	}
	if r.Avatar != nil {
		columns, values["avatar"] = append(columns, "avatar"), *r.Avatar
	}
	if len(columns) > 0 {
		stmt, names := qb.Update(u.profileTable).Set(columns...).Where(qb.Eq("id")).Existing().ToCql()
		applied, err := u.scyllaClient.Query(stmt, names).WithContext(ctx).BindMap(values).MapScanCAS(map[string]interface{}{})
		if err != nil {
			return nil, err
		}
		if !applied {
			return nil, ErrUserNotFound
		}
	}
	profile, err := u.GetUserProfile(ctx, userId)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrUserNotFound
	}
	return profile, nil
}

// UpdateProgress applies fn to the stored progress with a compare-and-set on
// (xp, level), re-reading and retrying when another writer got there first.
func (u *UserProfileRepositoryScylla) UpdateProgress(ctx context.Context, userId string, fn ProgressFunc) (leveling.UserProgress, leveling.UserProgress, error) {
	var zero leveling.UserProgress
	for attempt := 0; attempt < maxProgressCasAttempts; attempt++ {
		userProfile, err := u.GetUserProfile(ctx, userId)
		if err != nil {
			return zero, zero, err
		}
		if userProfile == nil {
			return zero, zero, ErrUserNotFound
		}

		before := userProfile.Progress()
		after, err := fn(before)
		if err != nil {
			return zero, zero, err
		}

		updateQuery := u.scyllaClient.Query(fmt.Sprintf(`
			UPDATE %s
			SET xp = ?, level = ?
			WHERE id = ?
			IF xp = ? AND level = ?`, u.profileTable), nil).
			WithContext(ctx).
			Bind(after.Xp, after.Level, userProfile.Id, before.Xp, before.Level)

		applied, err := updateQuery.MapScanCAS(map[string]interface{}{})
		if err != nil {
			return zero, zero, err
		}
		if applied {
			return before, after, nil
		}
	}
	return zero, zero, fmt.Errorf("%w: user %s", ErrContention, userId)
}

func (u *UserProfileRepositoryScylla) Purge(ctx context.Context) error {
	for _, table := range []string{u.profileTable, u.emailTable} {
		if err := u.scyllaClient.Query(`TRUNCATE `+table, nil).WithContext(ctx).ExecRelease(); err != nil {
			return err
		}
	}
	return nil
}
