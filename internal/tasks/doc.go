// Package tasks orchestrates the prompt-to-video workflow with real-time progress reporting.
//
// # Core Operations
//
// The [ContentEngine] interface defines three operations:
//
//  1. [ContentEngine.Generate] : prompt to script
//     - Runs the script graph and reads the social post and script outputs
//     - Extracts scene stubs from the script ([ExtractStubs]) and numbers them 1..n
//
//  2. [ContentEngine.Assemble] : scenes to rendered video
//     - Rejects scenes without clips before any request ([MissingVideosError])
//     - Runs the template graph and binds video stubs to scene ids ([BindScenes])
//     - Uploads the bound clips concurrently ([UploadCoordinator])
//     - Merges upload URLs into the final template ([MergeUploads]) and submits it ([RenderSubmitter])
//     - Polls the render until it completes or fails ([RenderPoller])
//
//  3. [ContentEngine.Analyze] : location analysis through the location graph
//
// # Scene Identity
//
// Scene ids travel explicitly through every stage. Stubs carry the id of the scene they were bound
// to and uploads are keyed by it, so results never depend on slice positions lining up.
//
// # Cancellation
//
// Uploads share an errgroup context: the first failure cancels the rest and every real failure is
// reported. Polling honours the caller's context, a maximum attempt count and an optional deadline.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
//
// # Scene Editing
//
// [SceneStore] keeps the scenes of one project while they are edited, validates attached clips,
// and reports missing videos and the estimated duration.
package tasks
