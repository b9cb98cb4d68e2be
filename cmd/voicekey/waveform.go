package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/satriahrh/voicekey/server/internal/audio/analyser"
	"github.com/satriahrh/voicekey/server/internal/audio/pcm"
	"github.com/satriahrh/voicekey/server/internal/waveform"
)

var waveformCmd = &cobra.Command{
	Use:   "waveform",
	Short: "Render the waveform of a 16-bit PCM recording",
	Long: `Feeds a little-endian 16-bit mono PCM file (raw or WAV) through the
frequency analyser one FFT window at a time and prints the SVG path of the
final frame.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")
		every, _ := cmd.Flags().GetBool("every-frame")

		audio, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read audio: %w", err)
		}
		if len(audio) >= pcm.WAVHeaderSize && bytes.HasPrefix(audio, []byte("RIFF")) {
			audio = audio[pcm.WAVHeaderSize:]
		}

		a, err := analyser.New(analyser.Options{FFTSize: cfg.FFTSize})
		if err != nil {
			return err
		}
		defer a.Close()
		sampler := analyser.NewSampler(a)

		window := 2 * a.FFTSize()
		var last waveform.Path
		for off := 0; off < len(audio); off += window {
			end := min(off+window, len(audio))
			a.WritePCM16(audio[off:end])
			last = waveform.Render(sampler.Sample(), cfg.WaveformWidth, cfg.WaveformHeight)
			if every {
				fmt.Fprintln(cmd.OutOrStdout(), last.String())
			}
		}
		if len(audio) == 0 {
			last = waveform.Render(sampler.Sample(), cfg.WaveformWidth, cfg.WaveformHeight)
		}
		if !every || len(audio) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), last.String())
		}
		return nil
	},
}

func init() {
	waveformCmd.Flags().String("file", "", "PCM or WAV file")
	waveformCmd.Flags().Bool("every-frame", false, "print one path per analysed window")
	_ = waveformCmd.MarkFlagRequired("file")
}
