// Package server provides the studio proxy HTTP server and the OAuth callback handler used by the CLI.
//
// # Proxy Server
//
// [NewRouter] builds a chi router that fronts the rendering service and the media store:
//
//	GET  /health
//	GET  /media/*
//	GET  /api/hello/
//	GET  /api/tiktok/callback/
//	POST /api/tiktok/token/
//	GET  /api/tiktok/user-info/
//	POST /api/proxy/video-upload/
//	POST /api/proxy/create-movie/
//	GET  /api/proxy/movie-status/{project_id}/
//
// Routes under /api/proxy and /api/hello require a bearer token issued by the auth backend,
// verified as an HS256 JWT with audience "authenticated" by [AuthMiddleware].
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the OAuth2 authorization code callback flow for the CLI.
//
// The handler validates the state parameter (CSRF protection), exchanges the authorization code for tokens,
// and sends the result through a channel.
//
// It only processes one callback to prevent replay attacks.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
