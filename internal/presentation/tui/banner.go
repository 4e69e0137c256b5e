package tui

import (
	"fmt"

	"github.com/muesli/termenv"
)

// PrintBanner outputs an ASCII art banner for Flume.
func PrintBanner() {
	p := termenv.ColorProfile()
	// Subtle gradient-like color scheme (cyan to blue)
	s1 := termenv.String("   __ _                      ").Foreground(p.Color("#67e8f9"))
	s2 := termenv.String("  / _| |_   _ _ __ ___   ___ ").Foreground(p.Color("#22d3ee"))
	s3 := termenv.String(" | |_| | | | | '_ ` _ \\ / _ \\").Foreground(p.Color("#38bdf8"))
	s4 := termenv.String(" |  _| | |_| | | | | | |  __/").Foreground(p.Color("#60a5fa"))
	s5 := termenv.String(" |_| |_|\\__,_|_| |_| |_|\\___|").Foreground(p.Color("#818cf8"))

	fmt.Println()
	fmt.Println(s1)
	fmt.Println(s2)
	fmt.Println(s3)
	fmt.Println(s4)
	fmt.Println(s5)
	fmt.Println()
}
