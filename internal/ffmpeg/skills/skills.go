// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoCompressor - 按目标大小压缩视频

package skills

import (
	"bufio"
	"bytes"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
)

// Codec represents a codec with encoders and decoders
type Codec struct {
	Id       string
	Name     string
	Encoders []string
	Decoders []string
}

// Filter represents a supported filter
type Filter struct {
	Id   string
	Name string
}

// Library represents a linked av library
type Library struct {
	Name     string
	Compiled string
	Linked   string
}

// Info is the version block of `ffmpeg -version`
type Info struct {
	Version       string
	Compiler      string
	Configuration string
	Libraries     []Library
}

// Skills are the detected capabilities of FFmpeg
type Skills struct {
	FFmpeg  Info
	Filters []Filter
	Codecs  struct {
		Audio    []Codec
		Video    []Codec
		Subtitle []Codec
	}
}

// Required encoders and filters of the compression pipeline
var (
	RequiredEncoders = []string{"libx264", "aac"}
	RequiredFilters  = []string{"scale"}
)

// New returns the skills FFmpeg provides
func New(binary string) (Skills, error) {
	c := Skills{}

	out, err := run(binary, "-version")
	if err != nil {
		return Skills{}, fmt.Errorf("can't run ffmpeg -version: %w", err)
	}
	c.FFmpeg = parseVersion(out)
	if c.FFmpeg.Version == "" {
		return Skills{}, fmt.Errorf("can't parse ffmpeg version")
	}

	if out, err := run(binary, "-hide_banner", "-filters"); err == nil {
		c.Filters = parseFilters(out)
	}
	if out, err := run(binary, "-hide_banner", "-codecs"); err == nil {
		c.Codecs = parseCodecs(out)
	}
	return c, nil
}

func run(binary string, args ...string) ([]byte, error) {
	return exec.Command(binary, args...).Output()
}

// HasEncoder reports whether any codec lists name as encoder
func (s Skills) HasEncoder(name string) bool {
	for _, group := range [][]Codec{s.Codecs.Video, s.Codecs.Audio, s.Codecs.Subtitle} {
		for _, c := range group {
			for _, e := range c.Encoders {
				if e == name {
					return true
				}
			}
		}
	}
	return false
}

// HasFilter reports whether the filter is available
func (s Skills) HasFilter(name string) bool {
	for _, f := range s.Filters {
		if f.Id == name {
			return true
		}
	}
	return false
}

// Missing lists required encoders and filters this build lacks
func (s Skills) Missing() []string {
	var missing []string
	for _, e := range RequiredEncoders {
		if !s.HasEncoder(e) {
			missing = append(missing, "encoder "+e)
		}
	}
	for _, f := range RequiredFilters {
		if !s.HasFilter(f) {
			missing = append(missing, "filter "+f)
		}
	}
	return missing
}

var (
	reVersion       = regexp.MustCompile(`^ffmpeg version (?:n)?([0-9]+\.[0-9]+(\.[0-9]+)?)`)
	reVersionToken  = regexp.MustCompile(`^ffmpeg version (\S+)`)
	reCompiler      = regexp.MustCompile(`(?m)^\s*built with (.*)$`)
	reConfiguration = regexp.MustCompile(`(?m)^\s*configuration: (.*)$`)
	reLibrary       = regexp.MustCompile(`(?m)^\s*(lib(?:[a-z]+))\s+([0-9]+\.\s*[0-9]+\.\s*[0-9]+) /\s+([0-9]+\.\s*[0-9]+\.\s*[0-9]+)`)
	reFilter        = regexp.MustCompile(`^\s[TSC.]{3} ([0-9A-Za-z_]+)\s+(?:\S+)\s+(.*)$`)
	reCodec         = regexp.MustCompile(`^\s([D.])([E.])([VAS]).{3} ([0-9A-Za-z_]+)\s+(.*?)(?:\(decoders:([^\)]+)\))?\s?(?:\(encoders:([^\)]+)\))?$`)
)

func parseVersion(data []byte) Info {
	f := Info{}
	if m := reVersion.FindSubmatch(data); m != nil {
		f.Version = string(m[1])
		if len(m[2]) == 0 {
			f.Version += ".0"
		}
	} else if m := reVersionToken.FindSubmatch(data); m != nil {
		// git/nightly 构建, 如 N-113475-g1234abcd
		f.Version = string(m[1])
	}
	if m := reCompiler.FindSubmatch(data); m != nil {
		f.Compiler = string(m[1])
	}
	if m := reConfiguration.FindSubmatch(data); m != nil {
		f.Configuration = string(m[1])
	}
	for _, m := range reLibrary.FindAllSubmatch(data, -1) {
		f.Libraries = append(f.Libraries, Library{
			Name:     string(m[1]),
			Compiled: string(m[2]),
			Linked:   string(m[3]),
		})
	}
	return f
}

func parseFilters(data []byte) []Filter {
	var filters []Filter
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		if m := reFilter.FindStringSubmatch(scanner.Text()); m != nil {
			filters = append(filters, Filter{Id: m[1], Name: strings.TrimSpace(m[2])})
		}
	}
	return filters
}

func parseCodecs(data []byte) struct {
	Audio    []Codec
	Video    []Codec
	Subtitle []Codec
} {
	codecs := struct {
		Audio    []Codec
		Video    []Codec
		Subtitle []Codec
	}{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		m := reCodec.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		c := Codec{Id: m[4], Name: strings.TrimSpace(m[5])}
		if m[1] == "D" {
			if len(m[6]) == 0 {
				c.Decoders = []string{m[4]}
			} else {
				c.Decoders = strings.Fields(m[6])
			}
		}
		if m[2] == "E" {
			if len(m[7]) == 0 {
				c.Encoders = []string{m[4]}
			} else {
				c.Encoders = strings.Fields(m[7])
			}
		}
		switch m[3] {
		case "V":
			codecs.Video = append(codecs.Video, c)
		case "A":
			codecs.Audio = append(codecs.Audio, c)
		case "S":
			codecs.Subtitle = append(codecs.Subtitle, c)
		}
	}
	return codecs
}
