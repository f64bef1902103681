// Package handlers holds the HTTP building blocks shared by the server.
//
// Health checks aggregate named dependency probes run in parallel:
//
//	checker := handlers.NewCompositeHealthChecker("1.0.0")
//	checker.AddCheck("database", handlers.NewDatabaseCheck(conn))
//	checker.AddCheck("cache", handlers.NewCacheCheck(cache))
//	checker.AddCheck("campus_api", handlers.NewCampusCheck(campusClient))
//
//	status := checker.Check(ctx)
//
// The admin routes are protected with API key authentication and a request
// deadline:
//
//	auth := handlers.NewAPIKeyAuth("X-API-Key", cfg.HTTP.AdminAPIKeys)
//	protected := auth.Middleware(handlers.TimeoutMiddleware(30*time.Second)(h))
package handlers
