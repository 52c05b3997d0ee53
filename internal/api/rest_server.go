package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/annel0/blockverse/internal/auth"
	"github.com/annel0/blockverse/internal/game"
	"github.com/annel0/blockverse/internal/interaction"
	"github.com/annel0/blockverse/internal/logging"
	"github.com/annel0/blockverse/internal/middleware"
	"github.com/annel0/blockverse/internal/world/entity"
	"github.com/annel0/blockverse/internal/world/item"
	"github.com/gin-gonic/gin"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// eyeHeight смещение камеры игрока над позицией ног
const eyeHeight = 1.62

// RestServer административный REST API сервера
type RestServer struct {
	router  *gin.Engine
	game    *game.Game
	auth    *auth.Authenticator
	metrics *ServerMetrics
	server  *http.Server
	logger  *logging.Logger
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Addr     string              // адрес для запуска сервера
	Game     *game.Game          // игровой цикл
	Auth     *auth.Authenticator // проверка токенов
	Registry *prometheus.Registry
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) *RestServer {
	if config.Addr == "" {
		config.Addr = ":8088"
	}
	if config.Registry == nil {
		config.Registry = prometheus.NewRegistry()
	}

	gin.SetMode(gin.ReleaseMode)

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	// === Observability middleware ===
	router.Use(otelgin.Middleware("admin_api"))
	router.Use(middleware.NewRequestLogger().Handler())

	promMw := middleware.NewPrometheusMiddleware("admin_api", config.Registry)
	router.Use(promMw.Handler())
	middleware.RegisterMetricsEndpoint(router, config.Registry)

	rs := &RestServer{
		router:  router,
		game:    config.Game,
		auth:    config.Auth,
		metrics: NewServerMetrics(),
		logger:  logging.GetComponentLogger("api"),
	}
	rs.server = &http.Server{
		Addr:              config.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	rs.setupRoutes()
	return rs
}

// Handler возвращает http.Handler сервера
func (rs *RestServer) Handler() http.Handler {
	return rs.router
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	rs.router.GET("/health", rs.handleHealth)

	api := rs.router.Group("/api")
	api.POST("/auth/login", rs.handleLogin)
	api.GET("/stats", rs.handleStats)
	api.GET("/breaking", rs.handleBreaking)

	// Изменяющие состояние мира эндпоинты требуют JWT
	protected := api.Group("/")
	protected.Use(rs.jwtMiddleware())
	{
		protected.POST("/players", rs.handleJoin)
		protected.POST("/players/:id/click", rs.handleClick)
	}
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, GenericResponse{Success: false, Message: message})
}

// jwtMiddleware проверяет заголовок Authorization: Bearer <token>
func (rs *RestServer) jwtMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rs.auth == nil {
			fail(c, http.StatusServiceUnavailable, "Аутентификация не настроена")
			return
		}

		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			fail(c, http.StatusUnauthorized, "Требуется токен авторизации")
			return
		}

		claims, err := rs.auth.Validate(token)
		if err != nil {
			rs.logger.Warn("Отклонен токен с %s: %v", c.ClientIP(), err)
			fail(c, http.StatusUnauthorized, "Недействительный токен")
			return
		}

		c.Set("subject", claims.Subject)
		c.Next()
	}
}

// LoginRequest представляет запрос на вход
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// handleLogin выдает токен администратору
func (rs *RestServer) handleLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Неверный формат запроса")
		return
	}
	if rs.auth == nil {
		fail(c, http.StatusServiceUnavailable, "Аутентификация не настроена")
		return
	}

	token, err := rs.auth.Login(req.Username, req.Password)
	switch {
	case errors.Is(err, auth.ErrLoginDisabled):
		fail(c, http.StatusForbidden, "Вход по паролю отключен")
		return
	case errors.Is(err, auth.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, "Неверное имя пользователя или пароль")
		return
	case err != nil:
		rs.logger.Error("Ошибка входа %s: %v", req.Username, err)
		fail(c, http.StatusInternalServerError, "Ошибка генерации токена")
		return
	}

	rs.logger.Info("🔑 Администратор %s вошел с %s", req.Username, c.ClientIP())
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Успешная авторизация",
		Data:    gin.H{"token": token},
	})
}

// GameStats состояние игрового цикла
type GameStats struct {
	Tick         uint64         `json:"tick"`
	LoadedChunks int            `json:"loaded_chunks"`
	Players      int            `json:"players"`
	Objects      map[string]int `json:"objects"`
	Breaking     int            `json:"breaking"`
	PendingClick int            `json:"pending_clicks"`
}

// handleStats возвращает статистику процесса и игрового цикла
func (rs *RestServer) handleStats(c *gin.Context) {
	data := gin.H{"server": rs.metrics.Collect()}

	if rs.game != nil {
		objects := make(map[string]int)
		for kind, n := range rs.game.Objects().CountByKind() {
			objects[kind.String()] = n
		}
		data["game"] = GameStats{
			Tick:         rs.game.CurrentTick(),
			LoadedChunks: rs.game.World().LoadedChunks(),
			Players:      rs.game.Players().Len(),
			Objects:      objects,
			Breaking:     rs.game.Breaking().Len(),
			PendingClick: rs.game.Intake().Len(),
		}
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Статистика получена",
		Data:    data,
	})
}

// handleBreaking возвращает активные записи разрушения
func (rs *RestServer) handleBreaking(c *gin.Context) {
	entries := []interaction.BreakingSnapshot{}
	if rs.game != nil {
		entries = rs.game.Breaking().Snapshot()
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Активные разрушения",
		Data:    gin.H{"entries": entries, "total": len(entries)},
	})
}

// JoinRequest запрос на добавление игрока
type JoinRequest struct {
	Name     string     `json:"name" binding:"required"`
	Position [3]float64 `json:"position"`
	Yaw      float64    `json:"yaw"`   // радианы
	Pitch    float64    `json:"pitch"` // радианы
	Held     item.Stack `json:"held"`
}

// handleJoin добавляет игрока с камерой и инвентарем
func (rs *RestServer) handleJoin(c *gin.Context) {
	if rs.game == nil {
		fail(c, http.StatusServiceUnavailable, "Игровой цикл не запущен")
		return
	}

	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Неверный формат запроса")
		return
	}

	inv := item.NewInventory(item.DefaultInventorySize)
	inv.Slots[0] = req.Held
	player := &entity.Player{
		Name:      req.Name,
		Position:  mgl64.Vec3(req.Position),
		Camera:    entity.NewCamera(mgl64.Vec3{0, eyeHeight, 0}, req.Yaw, req.Pitch),
		Inventory: inv,
	}

	h, err := rs.game.Join(player)
	if err != nil {
		rs.logger.Error("Не удалось добавить игрока %s: %v", req.Name, err)
		fail(c, http.StatusInternalServerError, "Не удалось загрузить мир вокруг игрока")
		return
	}

	c.JSON(http.StatusCreated, GenericResponse{
		Success: true,
		Message: "Игрок добавлен",
		Data:    gin.H{"id": h.String()},
	})
}

// ClickRequest клик игрока
type ClickRequest struct {
	Button string `json:"button" binding:"required"` // primary | secondary
}

// handleClick ставит клик игрока в очередь ближайшего тика
func (rs *RestServer) handleClick(c *gin.Context) {
	if rs.game == nil {
		fail(c, http.StatusServiceUnavailable, "Игровой цикл не запущен")
		return
	}

	h, err := entity.ParseHandle(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, "Неверный ID игрока")
		return
	}
	if _, ok := rs.game.Players().Get(h); !ok {
		fail(c, http.StatusNotFound, "Игрок не найден")
		return
	}

	var req ClickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Неверный формат запроса")
		return
	}

	switch req.Button {
	case "primary":
		rs.game.Intake().PushPrimary(h)
	case "secondary":
		rs.game.Intake().PushSecondary(h)
	default:
		fail(c, http.StatusBadRequest, "Кнопка должна быть primary или secondary")
		return
	}

	c.JSON(http.StatusAccepted, GenericResponse{
		Success: true,
		Message: "Клик поставлен в очередь",
		Data:    gin.H{"tick": rs.game.CurrentTick() + 1},
	})
}

// handleHealth проверка состояния сервера
func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

// Start запускает REST сервер и блокируется до остановки
func (rs *RestServer) Start() error {
	rs.logger.Info("🌐 Admin API слушает %s", rs.server.Addr)
	if err := rs.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown останавливает сервер, дожидаясь завершения запросов
func (rs *RestServer) Shutdown(ctx context.Context) error {
	return rs.server.Shutdown(ctx)
}
