// Package services implements HTTP clients for every collaborator reelx depends on.
//
// # Graph Execution
//
// [GraphService] runs deployed graphs (script, template and location graphs) and exposes their node outputs.
// A run only succeeds when the API answers "Graph executed successfully".
//
// # Auth Backend
//
// [AuthService] speaks the Supabase GoTrue REST API for email/password sign-in, sign-up, sign-out and user lookup.
//
// # TikTok
//
// [TikTokService] builds the Login Kit consent URL, exchanges codes through [oauth2.Config] and reads the user profile.
//
// # Rendering
//
// The [Renderer] interface abstracts movie creation and status:
//   - [StudioService] : the reelx proxy (also handles clip upload and the greeting)
//   - [JSON2VideoService] : json2video directly, used by the proxy server itself
//
// # Error Handling
//
// Non-2xx answers become [*StatusError], which unwraps to [shared.ErrAPIRequest].
// Undecodable bodies wrap [shared.ErrParse]; missing credentials wrap [shared.ErrMissingCredentials].
package services
