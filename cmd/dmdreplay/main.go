// Package main is dmdreplay: a small CLI that reads a raw capture file
// written by internal/sinks/dump.RawWriter and prints each frame's
// geometry, mode, and (for Data frames) an ASCII-art rendering to
// stdout, for inspecting a capture without a live display sink attached.
package main

import (
	"bufio"
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/pinlab/dmdengine/internal/frame"
	"github.com/pinlab/dmdengine/internal/wire"
)

var glyphs = [4]byte{' ', '.', '+', '#'}

func main() {
	path := flag.String("file", "", "path to a .raw capture file")
	limit := flag.Int("limit", 0, "stop after N frames (0 = no limit)")
	flag.Parse()

	if *path == "" {
		log.Fatal("dmdreplay: -file is required")
	}

	f, err := os.Open(*path)
	if err != nil {
		log.Fatalf("dmdreplay: open %q: %v", *path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	n := 0
	for *limit == 0 || n < *limit {
		ms, record, err := readRecord(r)
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("dmdreplay: read record %d: %v", n, err)
		}

		fr, err := wire.Decode(record)
		if err != nil {
			log.Fatalf("dmdreplay: decode record %d: %v", n, err)
		}

		fmt.Printf("frame %d  t=%dms  mode=%s  %dx%d  depth=%d\n", n, ms, fr.Mode, fr.Width, fr.Height, fr.Depth)
		if fr.Mode == frame.Data && fr.HasPixels {
			printASCII(&fr)
		}
		n++
	}
}

func readRecord(r *bufio.Reader) (ms uint32, record []byte, err error) {
	if err = binary.Read(r, binary.LittleEndian, &ms); err != nil {
		return 0, nil, err
	}
	var size uint32
	if err = binary.Read(r, binary.LittleEndian, &size); err != nil {
		return 0, nil, err
	}
	record = make([]byte, size)
	if _, err = io.ReadFull(r, record); err != nil {
		return 0, nil, err
	}
	return ms, record, nil
}

func printASCII(fr *frame.Frame) {
	shift := uint(0)
	if fr.Depth == 4 {
		shift = 2
	}
	for row := 0; row < fr.Height; row++ {
		line := make([]byte, fr.Width)
		for col := 0; col < fr.Width; col++ {
			v := fr.Pixels[row*fr.Width+col] >> shift
			if int(v) >= len(glyphs) {
				v = byte(len(glyphs) - 1)
			}
			line[col] = glyphs[v]
		}
		fmt.Println(string(line))
	}
	fmt.Println()
}
