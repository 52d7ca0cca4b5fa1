// Package tui implements the interactive pairing flow.
//
// Pairing a new application with a bridge requires a physical link button
// press within a short window. PairModel keeps re-attempting registration
// while showing a spinner, so the user can press the button at their own
// pace, and terminates with either the assigned username or the bridge's
// refusal.
//
// The model is run with bubbletea:
//
//	model := tui.NewPairModel(b, "myapp#host", 30*time.Second)
//	final, err := tea.NewProgram(model).Run()
//	if err != nil {
//		return err
//	}
//	result := final.(tui.PairModel)
//	if result.Err != nil {
//		return result.Err
//	}
//	fmt.Println(result.Username)
package tui
