package httpserver

func (s *Server) setupRoutes() {
	s.echo.GET("/metrics", s.metricsEndpoint)

	api := s.echo.Group("/api")
	api.GET("/health", s.healthCheck)
	api.POST("/graphql", s.graphql)

	api.POST("/revalidate", s.revalidate)
	api.GET("/render-status", s.renderStatus)
	api.POST("/render-status", s.markRendered)

	rl := s.middleware.RateLimit
	auth := api.Group("/auth")
	auth.POST("/login", s.login, rl.Limit(s.limits.Login, "Too many login attempts. Please try again later."))
	auth.POST("/register", s.register, rl.Limit(s.limits.Register, "Too many registration attempts. Please try again later."))
	auth.POST("/password", s.changePassword, rl.Limit(s.limits.Password, "Too many attempts. Please try again later."))
	auth.GET("/session", s.session, rl.Limit(s.limits.Session, "Too many session checks. Please try again later."))
	auth.POST("/logout", s.logout, rl.Limit(s.limits.Logout, "Too many requests. Please try again later."))
}
