package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"momentum/config"
	controller "momentum/controllers"
	"momentum/metrics"
	"momentum/middleware"
	"momentum/services"
	"momentum/utils"
)

const logFormat = "[${time}] ${status} - ${latency} ${method} ${path}\n"

// Services bundles the domain services the HTTP layer calls into.
type Services struct {
	DB          *gorm.DB
	Auth        *services.AuthService
	Orgs        *services.OrganizationService
	Employees   *services.EmployeeService
	Projects    *services.ProjectService
	Tasks       *services.TaskService
	Tracking    *services.TimeTrackingService
	Reports     *services.ReportService
	Screenshots *services.ScreenshotService
}

func NewServices(db *gorm.DB, notifier services.Notifier, domains utils.DomainChecker, presigner utils.Presigner) *Services {
	policy := services.NewPolicy(db)
	return &Services{
		DB:          db,
		Auth:        services.NewAuthService(db, notifier),
		Orgs:        services.NewOrganizationService(db, policy, domains),
		Employees:   services.NewEmployeeService(db, policy, notifier, config.AppConfig.DomainURL+"/login"),
		Projects:    services.NewProjectService(db, policy),
		Tasks:       services.NewTaskService(db, policy),
		Tracking:    services.NewTimeTrackingService(db, policy),
		Reports:     services.NewReportService(db, policy),
		Screenshots: services.NewScreenshotService(db, policy, presigner),
	}
}

// NewApp builds the Fiber application with the shared middleware stack and
// every route mounted. storage may be nil for in-memory rate limiting.
func NewApp(svc *Services, storage fiber.Storage) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "momentum",
		ErrorHandler: utils.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(middleware.CORS(middleware.DefaultCORSConfig(config.AppConfig.CORSOrigins)))
	app.Use(metrics.Middleware())

	SetupRoutes(app, svc, storage)
	return app
}

func SetupAuthRoutes(app *fiber.App, svc *Services, storage fiber.Storage) {
	authController := controller.NewAuthController(svc.Auth)

	auth := app.Group("/auth", logger.New(logger.Config{Format: logFormat}))

	// Public auth endpoints (no authentication required)
	public := auth.Group("", middleware.AuthRateLimiter(storage))
	public.Post("/signup", authController.Signup)
	public.Post("/login", authController.Login)
	public.Post("/send-otp", authController.SendOTP)
	public.Post("/verify-email", authController.VerifyEmail)
	public.Post("/reset-password", authController.ResetPassword)
	public.Post("/refresh", authController.Refresh)

	auth.Get("/me", middleware.Protected(svc.Auth), authController.Me)

	logrus.Debug("Authentication routes initialized")
}

func SetupAPIRoutes(app *fiber.App, svc *Services) {
	orgController := controller.NewOrganizationController(svc.Orgs)
	employeeController := controller.NewEmployeeController(svc.Employees, svc.Projects, svc.Tasks)
	projectController := controller.NewProjectController(svc.Projects)
	taskController := controller.NewTaskController(svc.Tasks)
	trackingController := controller.NewTimeTrackingController(svc.Tracking, svc.Reports)
	screenshotController := controller.NewScreenshotController(svc.Screenshots)

	api := app.Group("/api/v1", middleware.Protected(svc.Auth), logger.New(logger.Config{Format: logFormat}))

	orgs := api.Group("/organizations")
	orgs.Post("/", orgController.CreateOrganization)
	orgs.Get("/", orgController.GetOrganizations)
	orgs.Get("/domain/:domain", orgController.GetOrganizationByDomain)
	orgs.Get("/:id", orgController.GetOrganization)
	orgs.Put("/:id", orgController.UpdateOrganization)
	orgs.Delete("/:id", orgController.DeleteOrganization)
	orgs.Get("/:id/employees", employeeController.GetOrganizationEmployees)
	orgs.Get("/:id/projects", projectController.GetOrganizationProjects)

	employees := api.Group("/employees")
	employees.Post("/", employeeController.CreateEmployee)
	employees.Get("/:id", employeeController.GetEmployee)
	employees.Put("/:id", employeeController.UpdateEmployee)
	employees.Delete("/:id", employeeController.DeleteEmployee)
	employees.Post("/:id/activate", employeeController.ActivateEmployee)
	employees.Post("/:id/deactivate", employeeController.DeactivateEmployee)
	employees.Get("/:id/projects", employeeController.GetEmployeeProjects)
	employees.Get("/:id/tasks", employeeController.GetEmployeeTasks)

	projects := api.Group("/projects")
	projects.Post("/", projectController.CreateProject)
	projects.Get("/:id", projectController.GetProject)
	projects.Put("/:id", projectController.UpdateProject)
	projects.Delete("/:id", projectController.DeleteProject)
	projects.Post("/:id/archive", projectController.ArchiveProject)
	projects.Post("/:id/unarchive", projectController.UnarchiveProject)
	projects.Post("/:id/employees", projectController.AssignEmployees)
	projects.Delete("/:id/employees", projectController.RemoveEmployees)
	projects.Get("/:id/employees", projectController.GetProjectEmployees)
	projects.Get("/:id/tasks", taskController.GetProjectTasks)
	projects.Post("/:id/tasks/default", taskController.CreateDefaultTask)

	tasks := api.Group("/tasks")
	tasks.Post("/", taskController.CreateTask)
	tasks.Get("/:id", taskController.GetTask)
	tasks.Put("/:id", taskController.UpdateTask)
	tasks.Delete("/:id", taskController.DeleteTask)
	tasks.Post("/:id/employees", taskController.AssignEmployees)
	tasks.Delete("/:id/employees", taskController.RemoveEmployees)
	tasks.Get("/:id/employees", taskController.GetTaskEmployees)

	tracking := api.Group("/time-tracking")
	tracking.Post("/clock-in/:employeeId", trackingController.ClockIn)
	tracking.Post("/clock-out/:employeeId", trackingController.ClockOut)
	tracking.Post("/employee/:employeeId/break/start", trackingController.StartBreak)
	tracking.Post("/employee/:employeeId/break/end", trackingController.EndBreak)
	tracking.Get("/employee/:employeeId/current-session", trackingController.GetCurrentSession)
	tracking.Get("/employee/:employeeId/logs", trackingController.GetEmployeeLogs)
	tracking.Get("/entry/:entryId", trackingController.GetEntry)
	tracking.Put("/entry/:entryId", trackingController.UpdateEntry)
	tracking.Delete("/entry/:entryId", trackingController.DeleteEntry)
	tracking.Post("/report", trackingController.GenerateReport)
	tracking.Get("/organization/:id/summary", trackingController.GetOrganizationSummary)

	screenshots := api.Group("/screenshots")
	screenshots.Post("/", screenshotController.CreateScreenshot)
	screenshots.Post("/upload-url", screenshotController.GetUploadURL)
	screenshots.Get("/employee/:id", screenshotController.GetEmployeeScreenshots)
	screenshots.Get("/organization/:id", screenshotController.GetOrganizationScreenshots)
	screenshots.Get("/project/:id", screenshotController.GetProjectScreenshots)
	screenshots.Get("/task/:id", screenshotController.GetTaskScreenshots)
	screenshots.Get("/:id", screenshotController.GetScreenshot)
	screenshots.Put("/:id", screenshotController.UpdateScreenshot)
	screenshots.Delete("/:id", screenshotController.DeleteScreenshot)

	logrus.Debug("API routes initialized")
}

func SetupRoutes(app *fiber.App, svc *Services, storage fiber.Storage) {
	app.Get("/health", func(c *fiber.Ctx) error {
		status := "ok"
		if svc.DB != nil {
			if sqlDB, err := svc.DB.DB(); err != nil || sqlDB.PingContext(c.UserContext()) != nil {
				status = "degraded"
			}
		}
		return c.JSON(fiber.Map{"status": status})
	})
	app.Get("/metrics", metrics.Handler())

	SetupAuthRoutes(app, svc, storage)
	SetupAPIRoutes(app, svc)

	// Setup 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return utils.Fail(c, utils.ErrNotFound("The requested resource was not found"))
	})
}
