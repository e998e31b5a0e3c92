// Package middleware provides a collection of Fiber middleware components
// shared by every route of the service.
//
// Each middleware declares a Priority value that determines its execution order:
//
//   - Recovery (1000): Catches panics in the middleware chain
//   - CORS (950): Answers preflight requests and sets CORS headers
//   - Tracing (900): Creates spans for request tracing
//   - Timeout (800): Applies timeouts to request contexts
//   - MetaInject (700): Injects metadata into the request context
//   - Logger (500): Logs request and response details
//   - ErrorHandler (400): Converts errors to standardized responses
//
// Higher priority values are executed earlier in the request pipeline.
//
//	srv := server.NewHTTPServer(cfg, []server.Middleware{
//		middleware.NewRecoveryMW(log),
//		middleware.NewCORSMW(),
//		middleware.NewTracingMW(),
//		middleware.NewTimeoutMW(cfg.HandleTimeout),
//		middleware.NewMetaInjectMW("voiceout", "1.0.0"),
//		middleware.NewLoggerMW(log),
//		middleware.NewErrorHandlerMW(cfg.HideErrorDetails),
//	})
package middleware
