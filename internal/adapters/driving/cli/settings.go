package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/services"
)

// stdin is read by interactive prompts. Tests replace it.
var stdin io.Reader = os.Stdin

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure AI providers, chunking, retrieval and storage.

Settings live in config.toml inside the configuration directory. API keys may
also come from OPENAI_API_KEY, ANTHROPIC_API_KEY and GEMINI_API_KEY, or from a
.env file in the working directory.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a single setting",
	Long: `Change a single setting by its dotted key.

Keys:
  ` + strings.Join(services.SettingKeys(), "\n  ") + `

Examples:
  ragcore settings set retrieval.top_k 8
  ragcore settings set chunker.chunk_size 800
  ragcore settings set storage.autosave "@every 10m"`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsSetKeyCmd = &cobra.Command{
	Use:   "set-key <provider>",
	Short: "Store an API key for a provider",
	Long: `Prompts for an API key without echoing it and stores it for every
configured service (embedding, LLM) that uses the provider.`,
	Args: cobra.ExactArgs(1),
	RunE: runSettingsSetKey,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long: `Configure the embedding provider used to index and retrieve chunks.

Changing the provider or model changes the vector space: re-ingest your
documents afterwards.`,
	RunE: runSettingsEmbedding,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure LLM provider",
	Long:  `Configure the LLM provider used to compose answers.`,
	RunE:  runSettingsLLM,
}

var settingsJSON bool

func init() {
	settingsShowCmd.Flags().BoolVar(&settingsJSON, "json", false, "output settings as JSON (API keys masked)")
	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd, settingsSetKeyCmd, settingsEmbeddingCmd, settingsLLMCmd)
	rootCmd.AddCommand(settingsCmd)
}

type settingsRow struct{ label, value string }

type settingsSection struct {
	title string
	rows  []settingsRow
}

// describeSettings lays settings out for `settings show`. Optional values
// that are unset are left out.
func describeSettings(s *domain.AppSettings) []settingsSection {
	optional := func(rows []settingsRow, label, value string) []settingsRow {
		if value == "" {
			return rows
		}
		return append(rows, settingsRow{label, value})
	}
	apiKey := func(rows []settingsRow, p domain.AIProvider, key string) []settingsRow {
		switch {
		case !p.RequiresAPIKey():
			return rows
		case key == "":
			return append(rows, settingsRow{"API Key", "(not set)"})
		default:
			return append(rows, settingsRow{"API Key", maskAPIKey(key)})
		}
	}
	status := func(ok bool) settingsRow {
		if ok {
			return settingsRow{"Status", "configured"}
		}
		return settingsRow{"Status", "not configured"}
	}

	dims := "(detected at startup)"
	if s.Embedding.Dimensions > 0 {
		dims = strconv.Itoa(s.Embedding.Dimensions)
	}
	embed := []settingsRow{
		{"Provider", s.Embedding.Provider.Description()},
		{"Model", s.Embedding.Model},
	}
	embed = optional(embed, "Base URL", s.Embedding.BaseURL)
	embed = apiKey(embed, s.Embedding.Provider, s.Embedding.APIKey)
	embed = append(embed,
		settingsRow{"Dimensions", dims},
		settingsRow{"Batch size", strconv.Itoa(s.Embedding.BatchSize)},
		status(s.Embedding.IsConfigured()))

	llm := []settingsRow{
		{"Provider", s.LLM.Provider.Description()},
		{"Model", s.LLM.Model},
	}
	llm = optional(llm, "Base URL", s.LLM.BaseURL)
	llm = apiKey(llm, s.LLM.Provider, s.LLM.APIKey)
	llm = append(llm,
		settingsRow{"Sampling", fmt.Sprintf("temperature %g, max tokens %d, top_p %g",
			s.LLM.Temperature, s.LLM.MaxTokens, s.LLM.TopP)},
		status(s.LLM.IsConfigured()))

	storage := []settingsRow{{"Backend", string(s.Storage.Backend)}}
	storage = optional(storage, "Data dir", s.Storage.DataDir)
	storage = append(storage, settingsRow{"Save on write", strconv.FormatBool(s.Storage.SaveOnWrite)})
	storage = optional(storage, "Autosave", s.Storage.AutosaveSchedule)

	return []settingsSection{
		{"Embedding", embed},
		{"LLM", llm},
		{"Chunker", []settingsRow{
			{"Chunk size", fmt.Sprintf("%d characters", s.Chunker.ChunkSize)},
			{"Overlap", fmt.Sprintf("%d characters", s.Chunker.Overlap)},
		}},
		{"Retrieval", []settingsRow{
			{"Top k", strconv.Itoa(s.Retrieval.TopK)},
			{"History window", fmt.Sprintf("%d turns", s.Retrieval.HistoryWindow)},
			{"Generation timeout", s.Retrieval.GenerationTimeout.String()},
			{"Preview length", fmt.Sprintf("%d characters", s.Retrieval.PreviewLength)},
		}},
		{"Storage", storage},
	}
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	svc, err := requireSettings()
	if err != nil {
		return err
	}
	settings, err := svc.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	if settingsJSON {
		masked := *settings
		masked.Embedding.APIKey = maskIfSet(masked.Embedding.APIKey)
		masked.LLM.APIKey = maskIfSet(masked.LLM.APIKey)
		return printJSON(cmd, masked)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	for _, sec := range describeSettings(settings) {
		cmd.Printf("\n[%s]\n", sec.title)
		for _, r := range sec.rows {
			cmd.Printf("  %s: %s\n", r.label, r.value)
		}
	}
	cmd.Println()

	if err := svc.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'ragcore settings set' to fix configuration issues.")
		return nil
	}
	cmd.Println("Configuration is valid.")
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	svc, err := requireSettings()
	if err != nil {
		return err
	}

	key, value := args[0], args[1]
	if err := svc.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	if strings.HasSuffix(key, ".api_key") {
		value = maskAPIKey(value)
	}
	cmd.Printf("Set %s = %s\n", key, value)
	return nil
}

// runSettingsSetKey stores one key for every service that uses the provider.
func runSettingsSetKey(cmd *cobra.Command, args []string) error {
	svc, err := requireSettings()
	if err != nil {
		return err
	}

	provider := domain.AIProvider(strings.ToLower(args[0]))
	if !provider.RequiresAPIKey() {
		return fmt.Errorf("%w: %s does not use an API key", domain.ErrInvalidInput, args[0])
	}

	settings, err := svc.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	var targets []string
	if settings.Embedding.Provider == provider {
		targets = append(targets, "embedding.api_key")
	}
	if settings.LLM.Provider == provider {
		targets = append(targets, "llm.api_key")
	}
	if len(targets) == 0 {
		return fmt.Errorf("%s is not configured; run 'ragcore settings embedding' or 'ragcore settings llm'",
			provider.DisplayName())
	}

	cmd.Printf("Enter %s API key: ", provider.DisplayName())
	apiKey := readPassword(bufio.NewReader(stdin))
	cmd.Println()
	if apiKey == "" {
		return errors.New("API key is required")
	}

	for _, k := range targets {
		if err := svc.Set(k, apiKey); err != nil {
			return fmt.Errorf("failed to set %s: %w", k, err)
		}
	}
	cmd.Printf("Stored %s API key %s\n", provider.DisplayName(), maskAPIKey(apiKey))
	return nil
}

// providerWizard walks through choosing a provider, a model and a key, then
// applies and checks the result.
type providerWizard struct {
	kind      string
	providers []domain.AIProvider
	models    map[domain.AIProvider]string
	apply     func(p domain.AIProvider, model, apiKey string) error
	validate  func() error
	afterword string
}

func (w providerWizard) run(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Printf("Select %s Provider\n", w.kind)
	for i, p := range w.providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	provider := w.providers[parseChoice(readLine(reader), len(w.providers), 1)-1]

	model := w.models[provider]
	cmd.Printf("Enter model name [%s]: ", model)
	if typed := readLine(reader); typed != "" {
		model = typed
	}

	var apiKey string
	if provider.RequiresAPIKey() {
		cmd.Print("Enter API key (blank to use the environment): ")
		apiKey = readPassword(reader)
		cmd.Println()
	}

	if err := w.apply(provider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure %s provider: %w", w.kind, err)
	}

	cmd.Print("Validating configuration... ")
	if err := w.validate(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("%s configuration validation failed: %w", w.kind, err)
	}
	cmd.Println("OK")

	cmd.Printf("%s provider configured: %s (%s)\n", w.kind, provider.Description(), model)
	if w.afterword != "" {
		cmd.Println(w.afterword)
	}
	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	svc, err := requireSettings()
	if err != nil {
		return err
	}
	return providerWizard{
		kind:      "Embedding",
		providers: domain.AllEmbeddingProviders(),
		models:    domain.DefaultEmbeddingModels(),
		apply:     svc.SetEmbeddingProvider,
		validate:  svc.ValidateEmbeddingConfig,
		afterword: "Re-ingest your documents so they are embedded with the new model.",
	}.run(cmd, bufio.NewReader(stdin))
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	svc, err := requireSettings()
	if err != nil {
		return err
	}
	return providerWizard{
		kind:      "LLM",
		providers: domain.AllLLMProviders(),
		models:    domain.DefaultLLMModels(),
		apply:     svc.SetLLMProvider,
		validate:  svc.ValidateLLMConfig,
	}.run(cmd, bufio.NewReader(stdin))
}

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo from a terminal and falls back to a plain line.
func readPassword(reader *bufio.Reader) string {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(reader)
}

func maskIfSet(key string) string {
	if key == "" {
		return ""
	}
	return maskAPIKey(key)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
