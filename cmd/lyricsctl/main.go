// Command lyricsctl converts between lyric formats, inspects AMLX
// binaries, and exercises the QRC DES/zlib codec directly.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/apoint123/lyricsforge/amlx"
	"github.com/apoint123/lyricsforge/convert"
	"github.com/apoint123/lyricsforge/internal/qrccodec"
	"github.com/apoint123/lyricsforge/ir"
)

var log = logrus.New()

// loadConfig layers an optional config file, then environment
// variables (LYRICSCTL_*), mirroring the teacher's config manager
// discipline of file-then-env precedence.
func loadConfig(configPath string) (*koanf.Koanf, error) {
	k := koanf.New(".")

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %q: %w", configPath, err)
		}
	}

	err := k.Load(env.Provider("LYRICSCTL_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "LYRICSCTL_")), "_", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading environment overrides: %w", err)
	}

	return k, nil
}

func colorText(text string, c color.Attribute) string {
	return color.New(c).SprintFunc()(text)
}

func formatFromExt(path string) (ir.LyricFormat, bool) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	return ir.ParseLyricFormat(ext)
}

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "lyricsctl",
		Short: "Convert, inspect and debug lyric files across formats",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			k, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if lvl := k.String("log.level"); lvl != "" {
				if parsed, err := logrus.ParseLevel(lvl); err == nil {
					log.SetLevel(parsed)
				}
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")

	rootCmd.AddCommand(newConvertCmd())
	rootCmd.AddCommand(newInspectCmd())
	rootCmd.AddCommand(newDecryptCmd())
	rootCmd.AddCommand(newEncryptCmd())

	if err := rootCmd.Execute(); err != nil {
		log.WithError(err).Error("command failed")
		os.Exit(1)
	}
}

func newConvertCmd() *cobra.Command {
	var inputPath, outputPath, targetFormat string
	var translationPaths, romanizationPaths []string

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a lyric file to another format",
		RunE: func(cmd *cobra.Command, args []string) error {
			mainContent, err := os.ReadFile(inputPath)
			if err != nil {
				return fmt.Errorf("reading input file: %w", err)
			}
			mainFormat, ok := formatFromExt(inputPath)
			if !ok {
				return fmt.Errorf("cannot determine format for %q, pass a recognized extension", inputPath)
			}

			target := ir.LyricFormat(targetFormat)
			if targetFormat == "" {
				target, ok = formatFromExt(outputPath)
				if !ok {
					return fmt.Errorf("cannot determine target format, pass --to or a recognized output extension")
				}
			}

			input := convert.ConversionInput{
				MainLyric:    convert.InputFile{Content: string(mainContent), Format: mainFormat, Filename: inputPath},
				TargetFormat: target,
			}
			for _, p := range translationPaths {
				input.Translations = append(input.Translations, auxInputFile(p))
			}
			for _, p := range romanizationPaths {
				input.Romanizations = append(input.Romanizations, auxInputFile(p))
			}

			result, err := convert.ConvertSingleLyric(input, convert.ConversionOptions{})
			if err != nil {
				return fmt.Errorf("conversion failed: %w", err)
			}
			for _, w := range result.Warnings {
				log.Warn(colorText(w, color.FgYellow))
			}

			if outputPath == "" {
				fmt.Println(result.Output)
				return nil
			}
			return os.WriteFile(outputPath, []byte(result.Output), 0644)
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "input lyric file")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file (stdout if omitted)")
	cmd.Flags().StringVarP(&targetFormat, "to", "t", "", "target format tag, e.g. lrc, ttml, qrc")
	cmd.Flags().StringSliceVar(&translationPaths, "translation", nil, "path[:lang] to an auxiliary translation file")
	cmd.Flags().StringSliceVar(&romanizationPaths, "romanization", nil, "path[:lang] to an auxiliary romanization file")
	cmd.MarkFlagRequired("input")

	return cmd
}

func auxInputFile(spec string) convert.InputFile {
	path, lang, _ := strings.Cut(spec, ":")
	content, err := os.ReadFile(path)
	if err != nil {
		log.WithError(err).Warnf("could not read auxiliary file %q, skipping", path)
		return convert.InputFile{}
	}
	format, _ := formatFromExt(path)
	return convert.InputFile{Content: string(content), Format: format, Language: lang, Filename: path}
}

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <file.amlx>",
		Short: "Print a human-readable summary of an AMLX binary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading file: %w", err)
			}
			summary, err := amlx.Inspect(raw)
			if err != nil {
				return fmt.Errorf("inspecting AMLX file: %w", err)
			}
			fmt.Print(summary)
			return nil
		},
	}
	return cmd
}

func newDecryptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decrypt <hex-string>",
		Short: "Decrypt a QRC-encoded lyric payload to plain TTML-like XML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plain, err := qrccodec.DecryptQRC(args[0])
			if err != nil {
				return fmt.Errorf("decrypting QRC payload: %w", err)
			}
			fmt.Println(plain)
			return nil
		},
	}
	return cmd
}

func newEncryptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encrypt <plaintext-file>",
		Short: "Encrypt plain QRC-dialect XML into its QRC hex payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading file: %w", err)
			}
			encrypted, err := qrccodec.EncryptQRC(string(content))
			if err != nil {
				return fmt.Errorf("encrypting QRC payload: %w", err)
			}
			fmt.Println(encrypted)
			return nil
		},
	}
	return cmd
}
