// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI walks one project from prompt to rendered video:
//  1. [PromptView] : Enter the business or campaign prompt
//  2. [GeneratingView] : Wait for the script graph
//  3. [SceneListView] : Review scenes, edit fields and attach clips (the scene planner)
//  4. [EditView] : Edit one field of the selected scene
//  5. [ConfirmView] : Confirm the render
//  6. [RenderView] : Monitor upload, submission and polling progress
//  7. [ResultView] : Show the final video URL or the failure
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the StudioEngine, providing non-blocking status reporting while rendering.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
