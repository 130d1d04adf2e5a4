// Package models defines the domain types shared by the reelx CLI, proxy server and workflow engine.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects: plain structs that travel over the wire
//   - [Scene] : one editable shot of the script, addressed by a 1-based id
//   - [SceneTemplate] : a scene stub in the render template, with its [VideoElement] list
//   - [VideoTemplate] : the full render template submitted to the rendering service
//   - [UploadedScene] : a stub paired with the URL of its uploaded clip
//   - [RenderJob] : status of a render job as reported by the rendering service
//   - [Session], [TikTokUser] : identities returned by the auth backend and TikTok
//
// 2. Persistent Entities: database-backed drafts with ids and timestamps
//   - [Project] : a prompt-to-video draft owning its scenes and render jobs
//   - [RenderRecord] : a render job tied to the project that submitted it
//
// Persistent entities implement [Model]; repositories implement [Repository].
package models
