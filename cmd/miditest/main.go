package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

func main() {
	defer midi.CloseDriver()

	if len(os.Args) < 2 {
		usage()
		return
	}

	switch os.Args[1] {
	case "list":
		listPorts()
	case "monitor":
		monitor(argOr(2, ""))
	case "note":
		sendNote(argOr(2, ""))
	case "poll":
		pollDevices()
	default:
		usage()
	}
}

func usage() {
	fmt.Println("MIDI Test Scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list            - List all MIDI ports")
	fmt.Println("  monitor [hint]  - Print incoming events from a port")
	fmt.Println("  note [hint]     - Send a test note to an output")
	fmt.Println("  poll            - Poll for device changes")
}

func argOr(i int, def string) string {
	if len(os.Args) > i {
		return os.Args[i]
	}
	return def
}

func listPorts() {
	fmt.Println("=== MIDI Input Ports ===")
	for i, p := range midi.GetInPorts() {
		fmt.Printf("  %d: %s\n", i, p.String())
	}
	fmt.Println("\n=== MIDI Output Ports ===")
	for i, p := range midi.GetOutPorts() {
		fmt.Printf("  %d: %s\n", i, p.String())
	}
}

func findIn(hint string) drivers.In {
	for _, p := range midi.GetInPorts() {
		if hint == "" || strings.Contains(strings.ToLower(p.String()), strings.ToLower(hint)) {
			return p
		}
	}
	return nil
}

func findOut(hint string) drivers.Out {
	for _, p := range midi.GetOutPorts() {
		if hint == "" || strings.Contains(strings.ToLower(p.String()), strings.ToLower(hint)) {
			return p
		}
	}
	return nil
}

func monitor(hint string) {
	in := findIn(hint)
	if in == nil {
		fmt.Println("No matching input port")
		return
	}
	fmt.Printf("Monitoring %s (Ctrl+C to exit)\n", in.String())

	stop, err := midi.ListenTo(in, func(msg midi.Message, timestampms int32) {
		var ch, note, vel uint8
		now := time.Now().Format("15:04:05.000")
		switch {
		case msg.GetNoteOn(&ch, &note, &vel):
			fmt.Printf("%s  note_on   ch=%d note=%d vel=%d\n", now, ch, note, vel)
		case msg.GetNoteOff(&ch, &note, &vel):
			fmt.Printf("%s  note_off  ch=%d note=%d\n", now, ch, note)
		case msg.GetControlChange(&ch, &note, &vel):
			fmt.Printf("%s  cc        ch=%d num=%d val=%d\n", now, ch, note, vel)
		case msg.GetProgramChange(&ch, &note):
			fmt.Printf("%s  program   ch=%d num=%d\n", now, ch, note)
		default:
			fmt.Printf("%s  %s\n", now, msg.String())
		}
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
}

func sendNote(hint string) {
	out := findOut(hint)
	if out == nil {
		fmt.Println("No matching output port")
		return
	}
	fmt.Printf("Sending C4 to %s\n", out.String())

	send, err := midi.SendTo(out)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	send(midi.NoteOn(0, 60, 100))
	time.Sleep(500 * time.Millisecond)
	send(midi.NoteOff(0, 60))
	fmt.Println("Done!")
}

func pollDevices() {
	fmt.Println("Polling for device changes every 2 seconds. Ctrl+C to exit.")

	lastIn := ""
	lastOut := ""

	for {
		var inNames, outNames []string
		for _, p := range midi.GetInPorts() {
			inNames = append(inNames, p.String())
		}
		for _, p := range midi.GetOutPorts() {
			outNames = append(outNames, p.String())
		}

		currentIn := strings.Join(inNames, ",")
		currentOut := strings.Join(outNames, ",")

		if currentIn != lastIn || currentOut != lastOut {
			fmt.Printf("\n[%s] Device change detected!\n", time.Now().Format("15:04:05"))
			fmt.Printf("  Inputs: %v\n", inNames)
			fmt.Printf("  Outputs: %v\n", outNames)
			lastIn = currentIn
			lastOut = currentOut
		}

		time.Sleep(2 * time.Second)
	}
}
