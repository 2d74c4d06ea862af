package servers

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/VictoriaMetrics/metrics"
	"github.com/gofiber/fiber/v3"
	"github.com/skif48/wellness-engine/app_config"
	"github.com/skif48/wellness-engine/entities"
	"github.com/skif48/wellness-engine/games"
	"github.com/skif48/wellness-engine/graceful_shutdown"
	"github.com/skif48/wellness-engine/leveling"
	"github.com/skif48/wellness-engine/repositories"
	"github.com/skif48/wellness-engine/servers/middleware"
	"github.com/skif48/wellness-engine/services"
)

const (
	userIdLocal           = "userId"
	backofficeTokenHeader = "X-Backoffice-Token"
)

type Auth interface {
	SignUp(ctx context.Context, req *entities.SignUpRequest) (*entities.UserProfile, error)
	SignIn(ctx context.Context, req *entities.SignInRequest) (*entities.SignInResponse, error)
	SignOut(ctx context.Context, token string) error
	CurrentUser(ctx context.Context, token string) (string, error)
}

type Sessions interface {
	Start(ctx context.Context, userId string, kind games.Kind) (games.Snapshot, error)
	Apply(ctx context.Context, userId string, kind games.Kind, move games.Move) (games.Snapshot, error)
	Snapshot(userId string, kind games.Kind) (games.Snapshot, error)
	RetryAward(ctx context.Context, userId string, kind games.Kind) (games.Snapshot, error)
	End(userId string, kind games.Kind) error
}

type Leaderboards interface {
	GetAllLeaderboards(ctx context.Context) (map[string][]*entities.LeaderboardScoreFull, error)
	GetLeaderboard(ctx context.Context, board string) ([]*entities.LeaderboardScoreFull, error)
	GetStanding(ctx context.Context, board string, userId string) (*entities.Standing, error)
}

type Community interface {
	CreatePost(ctx context.Context, userId string, req *entities.CreatePostRequest) (*entities.Post, error)
	ListPosts(ctx context.Context, viewerId string) ([]*entities.Post, error)
	DeletePost(ctx context.Context, userId string, postId string) error
	ToggleLike(ctx context.Context, userId string, postId string) (*entities.LikeResult, error)
	CreateComment(ctx context.Context, userId string, postId string, req *entities.CreateCommentRequest) (*entities.Comment, error)
	ListComments(ctx context.Context, postId string) ([]*entities.Comment, error)
	DeleteComment(ctx context.Context, userId string, commentId string) error
}

type Purger interface {
	Purge(ctx context.Context) error
}

type HttpHandler struct {
	auth         Auth
	profiles     repositories.UserProfileRepository
	sessions     Sessions
	leaderboards Leaderboards
	community    Community
	backoffice   Purger

	backofficeToken string
}

func NewHttpHandler(
	ac *app_config.AppConfig,
	auth *services.AuthService,
	profiles repositories.UserProfileRepository,
	sessions *services.SessionManager,
	leaderboards *services.LeaderboardService,
	community *services.CommunityService,
	backoffice *services.BackofficeService,
) *HttpHandler {
	return &HttpHandler{
		auth:         auth,
		profiles:     profiles,
		sessions:     sessions,
		leaderboards: leaderboards,
		community:    community,
		backoffice:   backoffice,

		backofficeToken: ac.BackofficeToken,
	}
}

func RunHttpServer(ac *app_config.AppConfig, h *HttpHandler) {
	app := h.App()
	graceful_shutdown.AddInputShutdownFunc(func() {
		if err := app.Shutdown(); err != nil {
			slog.With("err", err).Error("Failed to shut down http server")
		}
	})

	go func() {
		if err := app.Listen(fmt.Sprintf(":%d", ac.FiberPort), fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
			slog.With("err", err).Error("Http server stopped")
		}
	}()
}

func (h *HttpHandler) App() *fiber.App {
	app := fiber.New()
	app.Use(middleware.MetricsMiddleware())

	app.Get("/metrics", h.Metrics)

	users := app.Group("/api/v1/users")
	users.Post("/sign-up", h.SignUp)
	users.Post("/sign-in", h.SignIn)
	users.Post("/sign-out", h.RequireAuth, h.SignOut)
	users.Get("/me", h.RequireAuth, h.GetMe)
	users.Patch("/me", h.RequireAuth, h.UpdateMe)
	users.Get("/:userId/profile", h.GetUserProfile)

	gamesApi := app.Group("/api/v1/games/:kind", h.RequireAuth)
	gamesApi.Post("/start", h.StartGame)
	gamesApi.Post("/moves", h.ApplyMove)
	gamesApi.Get("/", h.GetGame)
	gamesApi.Post("/award/retry", h.RetryAward)
	gamesApi.Delete("/", h.EndGame)

	app.Get("/api/v1/leaderboards", h.GetAllLeaderboards)
	app.Get("/api/v1/leaderboards/:kind", h.GetLeaderboard)
	app.Get("/api/v1/leaderboards/:kind/me", h.RequireAuth, h.GetStanding)

	posts := app.Group("/api/v1/posts", h.RequireAuth)
	posts.Get("/", h.ListPosts)
	posts.Post("/", h.CreatePost)
	posts.Delete("/:postId", h.DeletePost)
	posts.Post("/:postId/like", h.ToggleLike)
	posts.Get("/:postId/comments", h.ListComments)
	posts.Post("/:postId/comments", h.CreateComment)
	app.Delete("/api/v1/comments/:commentId", h.RequireAuth, h.DeleteComment)

	app.Post("/backoffice-api/purge", h.RequireBackoffice, h.Purge)
	return app
}

func bearerToken(c fiber.Ctx) string {
	token, ok := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

func (h *HttpHandler) RequireAuth(c fiber.Ctx) error {
	userId, err := h.auth.CurrentUser(c.Context(), bearerToken(c))
	if err != nil {
		return h.fail(c, err)
	}
	c.Locals(userIdLocal, userId)
	return c.Next()
}

// RequireBackoffice hides the backoffice API unless a token is configured and presented.
func (h *HttpHandler) RequireBackoffice(c fiber.Ctx) error {
	if h.backofficeToken == "" {
		return c.SendStatus(fiber.StatusNotFound)
	}
	if subtle.ConstantTimeCompare([]byte(c.Get(backofficeTokenHeader)), []byte(h.backofficeToken)) != 1 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid backoffice token"})
	}
	return c.Next()
}

func currentUser(c fiber.Ctx) string {
	userId, _ := c.Locals(userIdLocal).(string)
	return userId
}

// fail maps domain errors onto HTTP statuses.
func (h *HttpHandler) fail(c fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, games.ErrInvalidMove),
		errors.Is(err, games.ErrUnknownGame),
		errors.Is(err, services.ErrInvalidSignUp),
		errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, leveling.ErrNegativeAmount):
		status = fiber.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrUnauthorized):
		status = fiber.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		status = fiber.StatusForbidden
	case errors.Is(err, services.ErrNoSession),
		errors.Is(err, services.ErrUnknownLeaderboard),
		errors.Is(err, repositories.ErrUserNotFound),
		errors.Is(err, repositories.ErrPostNotFound),
		errors.Is(err, repositories.ErrCommentNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, repositories.ErrEmailTaken),
		errors.Is(err, games.ErrNoAward):
		status = fiber.StatusConflict
	default:
		slog.With("err", err, "path", c.Path()).Error("Request failed")
		return c.Status(status).JSON(fiber.Map{"error": "internal error"})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func (h *HttpHandler) Metrics(c fiber.Ctx) error {
	var buf bytes.Buffer
	metrics.WritePrometheus(&buf, true)
	c.Set(fiber.HeaderContentType, "text/plain; version=0.0.4")
	return c.Send(buf.Bytes())
}

func (h *HttpHandler) SignUp(c fiber.Ctx) error {
	req := &entities.SignUpRequest{}
	if err := json.Unmarshal(c.Body(), req); err != nil {
		return c.SendStatus(fiber.StatusBadRequest)
	}
	userProfile, err := h.auth.SignUp(c.Context(), req)
	if err != nil {
		return h.fail(c, err)
	}
	c.Status(fiber.StatusCreated)
	return c.JSON(userProfile)
}

func (h *HttpHandler) SignIn(c fiber.Ctx) error {
	req := &entities.SignInRequest{}
	if err := json.Unmarshal(c.Body(), req); err != nil {
		return c.SendStatus(fiber.StatusBadRequest)
	}
	res, err := h.auth.SignIn(c.Context(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(res)
}

func (h *HttpHandler) SignOut(c fiber.Ctx) error {
	if err := h.auth.SignOut(c.Context(), bearerToken(c)); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *HttpHandler) profile(c fiber.Ctx, userId string) error {
	userProfile, err := h.profiles.GetUserProfile(c.Context(), userId)
	if err != nil {
		return h.fail(c, err)
	}
	if userProfile == nil {
		return c.SendStatus(fiber.StatusNotFound)
	}
	return c.JSON(userProfile)
}

func (h *HttpHandler) GetMe(c fiber.Ctx) error {
	return h.profile(c, currentUser(c))
}

func (h *HttpHandler) GetUserProfile(c fiber.Ctx) error {
	return h.profile(c, c.Params("userId"))
}

func (h *HttpHandler) UpdateMe(c fiber.Ctx) error {
	req := &entities.UpdateUserProfileDto{}
	if err := json.Unmarshal(c.Body(), req); err != nil {
		return c.SendStatus(fiber.StatusBadRequest)
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return h.fail(c, fmt.Errorf("%w: name must not be empty", services.ErrInvalidInput))
	}
	userProfile, err := h.profiles.UpdateProfile(c.Context(), currentUser(c), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(userProfile)
}

func gameKind(c fiber.Ctx) (games.Kind, error) {
	return games.ParseKind(c.Params("kind"))
}

func (h *HttpHandler) StartGame(c fiber.Ctx) error {
	kind, err := gameKind(c)
	if err != nil {
		return h.fail(c, err)
	}
	snap, err := h.sessions.Start(c.Context(), currentUser(c), kind)
	if err != nil {
		return h.fail(c, err)
	}
	c.Status(fiber.StatusCreated)
	return c.JSON(snap)
}

func (h *HttpHandler) ApplyMove(c fiber.Ctx) error {
	kind, err := gameKind(c)
	if err != nil {
		return h.fail(c, err)
	}
	move := games.Move{}
	if err := json.Unmarshal(c.Body(), &move); err != nil {
		return c.SendStatus(fiber.StatusBadRequest)
	}
	snap, err := h.sessions.Apply(c.Context(), currentUser(c), kind, move)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(snap)
}

func (h *HttpHandler) GetGame(c fiber.Ctx) error {
	kind, err := gameKind(c)
	if err != nil {
		return h.fail(c, err)
	}
	snap, err := h.sessions.Snapshot(currentUser(c), kind)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(snap)
}

func (h *HttpHandler) RetryAward(c fiber.Ctx) error {
	kind, err := gameKind(c)
	if err != nil {
		return h.fail(c, err)
	}
	snap, err := h.sessions.RetryAward(c.Context(), currentUser(c), kind)
	switch {
	case err == nil:
		return c.JSON(snap)
	case errors.Is(err, services.ErrNoSession), errors.Is(err, games.ErrNoAward):
		return h.fail(c, err)
	default:
		slog.With("err", err, "session_id", snap.SessionId).Warn("Award delivery failed again")
		c.Status(fiber.StatusBadGateway)
		return c.JSON(snap)
	}
}

func (h *HttpHandler) EndGame(c fiber.Ctx) error {
	kind, err := gameKind(c)
	if err != nil {
		return h.fail(c, err)
	}
	if err := h.sessions.End(currentUser(c), kind); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *HttpHandler) GetAllLeaderboards(c fiber.Ctx) error {
	boards, err := h.leaderboards.GetAllLeaderboards(c.Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(boards)
}

func (h *HttpHandler) GetStanding(c fiber.Ctx) error {
	standing, err := h.leaderboards.GetStanding(c.Context(), c.Params("kind"), currentUser(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(standing)
}

func (h *HttpHandler) GetLeaderboard(c fiber.Ctx) error {
	scores, err := h.leaderboards.GetLeaderboard(c.Context(), c.Params("kind"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(scores)
}

func (h *HttpHandler) ListPosts(c fiber.Ctx) error {
	posts, err := h.community.ListPosts(c.Context(), currentUser(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(posts)
}

func (h *HttpHandler) CreatePost(c fiber.Ctx) error {
	req := &entities.CreatePostRequest{}
	if err := json.Unmarshal(c.Body(), req); err != nil {
		return c.SendStatus(fiber.StatusBadRequest)
	}
	post, err := h.community.CreatePost(c.Context(), currentUser(c), req)
	if err != nil {
		return h.fail(c, err)
	}
	c.Status(fiber.StatusCreated)
	return c.JSON(post)
}

func (h *HttpHandler) DeletePost(c fiber.Ctx) error {
	if err := h.community.DeletePost(c.Context(), currentUser(c), c.Params("postId")); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *HttpHandler) ToggleLike(c fiber.Ctx) error {
	res, err := h.community.ToggleLike(c.Context(), currentUser(c), c.Params("postId"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(res)
}

func (h *HttpHandler) ListComments(c fiber.Ctx) error {
	comments, err := h.community.ListComments(c.Context(), c.Params("postId"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(comments)
}

func (h *HttpHandler) CreateComment(c fiber.Ctx) error {
	req := &entities.CreateCommentRequest{}
	if err := json.Unmarshal(c.Body(), req); err != nil {
		return c.SendStatus(fiber.StatusBadRequest)
	}
	comment, err := h.community.CreateComment(c.Context(), currentUser(c), c.Params("postId"), req)
	if err != nil {
		return h.fail(c, err)
	}
	c.Status(fiber.StatusCreated)
	return c.JSON(comment)
}

func (h *HttpHandler) DeleteComment(c fiber.Ctx) error {
	if err := h.community.DeleteComment(c.Context(), currentUser(c), c.Params("commentId")); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *HttpHandler) Purge(c fiber.Ctx) error {
	if err := h.backoffice.Purge(c.Context()); err != nil {
		slog.Error(err.Error())
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
