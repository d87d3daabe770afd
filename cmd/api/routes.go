package main

import (
	"net/http"

	"github.com/eqzhou81/CPEN-321-sub000/pkg/response"
	"github.com/gin-gonic/gin"
)

func (app *application) routes() http.Handler {
	if app.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(app.Recoverer())
	r.Use(app.RequestLogger())
	r.Use(app.CORS())
	r.Use(app.RateLimit())

	r.GET("/healthz", func(c *gin.Context) {
		if err := app.DB.Ping(c.Request.Context()); err != nil {
			response.InternalError(c, "database unavailable")
			return
		}
		response.OK(c, gin.H{"status": "ok", "realtime": app.Hub.Stats()})
	})
	r.GET("/ws", gin.WrapH(app.Hub))

	h := app.Handler
	api := r.Group("/api")
	{
		api.POST("/auth/signup", h.SignUp)
		api.POST("/auth/signin", h.SignIn)
	}

	protected := api.Group("/")
	protected.Use(app.AuthMiddleware())
	{
		protected.POST("/auth/signout", h.SignOut)

		protected.GET("/user/profile", h.GetProfile)
		protected.PUT("/user/profile", h.UpdateProfile)
		protected.DELETE("/user/profile", h.DeleteProfile)

		// job routes
		protected.POST("/jobs", h.CreateJob)
		protected.GET("/jobs", h.ListJobs)
		protected.GET("/jobs/stats", h.GetJobStats)
		protected.POST("/jobs/import", h.ImportJob)
		protected.GET("/jobs/:id", h.GetJob)
		protected.PUT("/jobs/:id", h.UpdateJob)
		protected.DELETE("/jobs/:id", h.DeleteJob)
		protected.GET("/jobs/:id/similar", h.SimilarJobs)

		// question routes
		protected.POST("/questions", h.CreateQuestion)
		protected.POST("/questions/generate", h.GenerateQuestions)
		protected.GET("/questions/job/:jobId", h.ListJobQuestions)
		protected.POST("/questions/job/:jobId", h.CreateJobQuestions)
		protected.DELETE("/questions/job/:jobId", h.DeleteJobQuestions)
		protected.GET("/questions/job/:jobId/progress", h.JobQuestionProgress)
		protected.GET("/questions/:id", h.GetQuestion)
		protected.PUT("/questions/:id/status", h.UpdateQuestionStatus)

		// session routes
		protected.POST("/sessions/create", h.CreateSession)
		protected.GET("/sessions", h.ListSessions)
		protected.POST("/sessions/submit-answer", h.SubmitAnswer)
		protected.GET("/sessions/:id", h.GetSession)
		protected.PUT("/sessions/:id/status", h.UpdateSessionStatus)
		protected.PUT("/sessions/:id/navigate", h.NavigateSession)
		protected.GET("/sessions/:id/progress", h.SessionProgress)
		protected.GET("/sessions/:id/answers", h.SessionAnswers)
		protected.DELETE("/sessions/:id", h.DeleteSession)

		// discussion routes
		protected.GET("/discussions", h.ListDiscussions)
		protected.GET("/discussions/my", h.MyDiscussions)
		protected.GET("/discussions/:id", h.GetDiscussion)
		protected.POST("/discussions", h.CreateDiscussion)
		protected.POST("/discussions/:id/messages", h.PostMessage)
	}

	return r
}
