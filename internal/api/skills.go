// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoCompressor - 按目标大小压缩视频

package api

import (
	"github.com/ZSC714725/videocompressor/internal/ffmpeg/skills"
)

// SkillsResponse for API
type SkillsResponse struct {
	FFmpeg struct {
		Version       string          `json:"version"`
		Compiler      string          `json:"compiler"`
		Configuration string          `json:"configuration"`
		Libraries     []SkillsLibrary `json:"libraries"`
	} `json:"ffmpeg"`

	Filters []SkillsItem `json:"filter"`

	Codecs struct {
		Audio    []SkillsCodec `json:"audio"`
		Video    []SkillsCodec `json:"video"`
		Subtitle []SkillsCodec `json:"subtitle"`
	} `json:"codecs"`

	// Missing lists required encoders and filters this build lacks
	Missing []string `json:"missing"`
}

type SkillsLibrary struct {
	Name     string `json:"name"`
	Compiled string `json:"compiled"`
	Linked   string `json:"linked"`
}

type SkillsItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type SkillsCodec struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Encoders []string `json:"encoders"`
	Decoders []string `json:"decoders"`
}

func skillsToAPI(s skills.Skills) SkillsResponse {
	resp := SkillsResponse{}

	resp.FFmpeg.Version = s.FFmpeg.Version
	resp.FFmpeg.Compiler = s.FFmpeg.Compiler
	resp.FFmpeg.Configuration = s.FFmpeg.Configuration
	resp.FFmpeg.Libraries = make([]SkillsLibrary, len(s.FFmpeg.Libraries))
	for i, lib := range s.FFmpeg.Libraries {
		resp.FFmpeg.Libraries[i] = SkillsLibrary{lib.Name, lib.Compiled, lib.Linked}
	}

	resp.Filters = make([]SkillsItem, len(s.Filters))
	for i, f := range s.Filters {
		resp.Filters[i] = SkillsItem{f.Id, f.Name}
	}

	resp.Codecs.Audio = codecsToAPI(s.Codecs.Audio)
	resp.Codecs.Video = codecsToAPI(s.Codecs.Video)
	resp.Codecs.Subtitle = codecsToAPI(s.Codecs.Subtitle)

	resp.Missing = s.Missing()
	if resp.Missing == nil {
		resp.Missing = []string{}
	}
	return resp
}

func codecsToAPI(codecs []skills.Codec) []SkillsCodec {
	out := make([]SkillsCodec, len(codecs))
	for i, c := range codecs {
		out[i] = SkillsCodec{ID: c.Id, Name: c.Name, Encoders: c.Encoders, Decoders: c.Decoders}
	}
	return out
}
