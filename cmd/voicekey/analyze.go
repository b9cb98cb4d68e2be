package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/satriahrh/voicekey/server/domain/entities"
	"github.com/satriahrh/voicekey/server/internal/audio/pcm"
	"github.com/satriahrh/voicekey/server/internal/datauri"
	"github.com/satriahrh/voicekey/server/usecase"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the AI security analysis on an audio file",
	Long: `Encodes an audio file as a data URI, runs the configured voice print
analyzer on it and prints the result as YAML.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user")
		path, _ := cmd.Flags().GetString("file")

		audio, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read audio: %w", err)
		}

		logger, err := cfg.NewLogger()
		if err != nil {
			return err
		}
		defer logger.Sync()

		analyzer, err := newAnalyzer(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}

		service := usecase.NewSecurityService(analyzer, nil, logger)
		result := service.Analyze(cmd.Context(), entities.AnalysisRequest{
			VoicePrintDataURI: datauri.Encode(audioMIMEType(path), audio),
			UserID:            userID,
		})

		out, err := yaml.Marshal(result)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), string(out))
		if !result.Success {
			return fmt.Errorf("analysis failed")
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().String("user", "cli", "user id sent with the voice print")
	analyzeCmd.Flags().String("file", "", "audio file to analyze")
	_ = analyzeCmd.MarkFlagRequired("file")
}

func audioMIMEType(path string) string {
	switch ext := filepath.Ext(path); ext {
	case ".wav":
		return "audio/wav"
	case ".webm":
		return "audio/webm"
	case ".ogg", ".opus":
		return "audio/ogg"
	case ".mp3":
		return "audio/mpeg"
	case ".pcm", ".raw":
		return pcm.MIMEType(pcm.DefaultSampleRate)
	default:
		if t := mime.TypeByExtension(ext); t != "" {
			return t
		}
		return datauri.DefaultMIMEType
	}
}
