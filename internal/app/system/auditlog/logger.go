// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"sort"
	"strings"

	"github.com/dalemusser/memberhub/internal/app/store/audit"
	"github.com/dalemusser/memberhub/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destination settings for a category.
const (
	All = "all" // MongoDB + zap
	DB  = "db"  // MongoDB only
	Log = "log" // zap only
	Off = "off" // disabled
)

// ValidSetting reports whether s is one of All, DB, Log or Off.
func ValidSetting(s string) bool {
	switch s {
	case All, DB, Log, Off:
		return true
	}
	return false
}

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for sign-in and sign-out events.
	Auth string
	// Admin controls logging for member and role changes.
	Admin string
}

// Logger records audit events to MongoDB (via audit.Store) and zap.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger. store may be nil, in which case only the
// zap destination is used.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

type requestMeta struct {
	ip        string
	userAgent string
}

type metaKey struct{}

// Middleware stores the client IP and user agent in the request context so
// events recorded deeper in the call stack carry them.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), metaKey{}, requestMeta{
			ip:        ratelimit.ClientIP(r),
			userAgent: r.UserAgent(),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func metaFrom(ctx context.Context) requestMeta {
	m, _ := ctx.Value(metaKey{}).(requestMeta)
	return m
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	keys := make([]string, 0, len(event.Details))
	for k := range event.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fields = append(fields, zap.String("detail_"+k, event.Details[k]))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event according to the configuration of its
// category. A nil Logger is a no-op.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAdmin:
		setting = l.config.Admin
	default:
		setting = All
	}
	if setting == Off {
		return
	}

	if event.IP == "" && event.UserAgent == "" {
		m := metaFrom(ctx)
		event.IP, event.UserAgent = m.ip, m.userAgent
	}

	if setting == All || setting == Log {
		l.logToZap(event)
	}
	if (setting == All || setting == DB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// --- Authentication Events ---

// LoginSuccess logs a successful sign-in.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, authMethod, email string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &userID,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details: map[string]string{
			"auth_method": authMethod,
			"email":       email,
		},
	})
}

// LoginFailedUserNotFound logs a sign-in attempt for an unknown email.
func (l *Logger) LoginFailedUserNotFound(ctx context.Context, r *http.Request, attemptedEmail string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedUserNotFound,
		IP:            ratelimit.ClientIP(r),
		UserAgent:     r.UserAgent(),
		FailureReason: "user not found",
		Details:       map[string]string{"attempted_email": attemptedEmail},
	})
}

// LoginFailedRateLimit logs a sign-in attempt refused by throttling.
func (l *Logger) LoginFailedRateLimit(ctx context.Context, r *http.Request, attemptedEmail, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedRateLimit,
		IP:            ratelimit.ClientIP(r),
		UserAgent:     r.UserAgent(),
		FailureReason: reason,
		Details:       map[string]string{"attempted_email": attemptedEmail},
	})
}

// LoginFailedWrongPassword logs a sign-in attempt with a bad password.
func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedWrongPassword,
		UserID:        &userID,
		IP:            ratelimit.ClientIP(r),
		UserAgent:     r.UserAgent(),
		FailureReason: "wrong password",
		Details:       map[string]string{"email": email},
	})
}

// LoginFailedUserInactive logs a sign-in attempt by an old member.
func (l *Logger) LoginFailedUserInactive(ctx context.Context, r *http.Request, userID primitive.ObjectID, authMethod, email string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedUserInactive,
		UserID:        &userID,
		IP:            ratelimit.ClientIP(r),
		UserAgent:     r.UserAgent(),
		FailureReason: "user inactive",
		Details: map[string]string{
			"auth_method": authMethod,
			"email":       email,
		},
	})
}

// Logout logs a sign-out. userIDStr is the session user's hex ID.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userIDStr string) {
	var userID *primitive.ObjectID
	if oid, err := primitive.ObjectIDFromHex(userIDStr); err == nil {
		userID = &oid
	}
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLogout,
		UserID:    userID,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	})
}

// --- Admin Events ---

func (l *Logger) admin(ctx context.Context, eventType string, actorID, userID primitive.ObjectID, details map[string]string) {
	e := audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: eventType,
		Success:   true,
		Details:   details,
	}
	if !actorID.IsZero() {
		e.ActorID = &actorID
	}
	if !userID.IsZero() {
		e.UserID = &userID
	}
	l.Log(ctx, e)
}

// UserCreated logs the creation of a member.
func (l *Logger) UserCreated(ctx context.Context, actorID, userID primitive.ObjectID) {
	l.admin(ctx, audit.EventUserCreated, actorID, userID, nil)
}

// UserUpdated logs a profile change. fields names the form fields that changed.
func (l *Logger) UserUpdated(ctx context.Context, actorID, userID primitive.ObjectID, fields []string) {
	l.admin(ctx, audit.EventUserUpdated, actorID, userID, map[string]string{
		"fields_changed": strings.Join(fields, ","),
	})
}

// UserDeactivated logs a member moving to the old members.
func (l *Logger) UserDeactivated(ctx context.Context, actorID, userID primitive.ObjectID) {
	l.admin(ctx, audit.EventUserDeactivated, actorID, userID, nil)
}

// RolesChanged logs the role set assigned to a user.
func (l *Logger) RolesChanged(ctx context.Context, actorID, userID primitive.ObjectID, roleIDs []primitive.ObjectID) {
	hex := make([]string, len(roleIDs))
	for i, id := range roleIDs {
		hex[i] = id.Hex()
	}
	l.admin(ctx, audit.EventRolesChanged, actorID, userID, map[string]string{
		"role_ids": strings.Join(hex, ","),
	})
}

// RoleCreated, RoleUpdated and RoleDeleted log role maintenance.
func (l *Logger) RoleCreated(ctx context.Context, actorID, roleID primitive.ObjectID, name string) {
	l.admin(ctx, audit.EventRoleCreated, actorID, primitive.NilObjectID, map[string]string{
		"role_id": roleID.Hex(), "role_name": name,
	})
}

func (l *Logger) RoleUpdated(ctx context.Context, actorID, roleID primitive.ObjectID, name string) {
	l.admin(ctx, audit.EventRoleUpdated, actorID, primitive.NilObjectID, map[string]string{
		"role_id": roleID.Hex(), "role_name": name,
	})
}

func (l *Logger) RoleDeleted(ctx context.Context, actorID, roleID primitive.ObjectID, name string) {
	l.admin(ctx, audit.EventRoleDeleted, actorID, primitive.NilObjectID, map[string]string{
		"role_id": roleID.Hex(), "role_name": name,
	})
}

// --- Mail Events ---

// MailingListFailed logs a provider call that the mail-sync worker gave up on.
func (l *Logger) MailingListFailed(ctx context.Context, userID primitive.ObjectID, op, jobID string, err error) {
	e := audit.Event{
		Category:  audit.CategoryMail,
		EventType: audit.EventMailingListFailed,
		Details: map[string]string{
			"op":     op,
			"job_id": jobID,
		},
	}
	if err != nil {
		e.FailureReason = err.Error()
	}
	if !userID.IsZero() {
		e.UserID = &userID
	}
	l.Log(ctx, e)
}
