// Package ui renders the terminal output of lektrico-cli with Lipgloss:
// command headers, success and failure boxes, and confirmation prompts.
//
// Components follow a "render once and print" pattern. The interactive
// dashboard lives in internal/tui.
//
//	fmt.Println(ui.NewHeader("Charge Start", "lektrico-cli charge start",
//	    ui.Param{Key: "Device", Value: "garage (192.168.1.20)"}))
//
//	if err != nil {
//	    fmt.Println(ui.RenderError("Charge start failed", err))
//	}
//
// Failure boxes derive their explanation and troubleshooting steps from
// lektrico.ShortMessage and lektrico.TroubleshootingHint.
package ui
