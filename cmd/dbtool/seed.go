package main

import (
	"context"
	"errors"
	"field-route-service/internal/adapters/distance"
	"field-route-service/internal/adapters/repositories"
	"field-route-service/internal/config"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	seedFile    string
	geocode     bool
	country     string
	mockClients int
	mockRadius  float64
	mockSeed    uint64
	mockBranch  string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load branches and clients from a JSON seed file",
	Long: `Loads branches and clients from a JSON seed file and upserts them.
Records that only carry an address can be geocoded with --geocode
(requires ORS_API_KEY). --mock-clients adds generated clients around
one branch, or every branch when --branch is empty.`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", config.Get("SEED_PATH", "data/seeds/branches.json"), "seed file")
	seedCmd.Flags().BoolVar(&geocode, "geocode", false, "geocode records without coordinates")
	seedCmd.Flags().StringVar(&country, "country", "IN", "ISO country code restricting geocoding")
	seedCmd.Flags().IntVar(&mockClients, "mock-clients", 0, "generated clients per branch")
	seedCmd.Flags().Float64Var(&mockRadius, "radius-km", 5, "radius of generated clients around the branch")
	seedCmd.Flags().Uint64Var(&mockSeed, "seed", 1, "random seed for generated clients")
	seedCmd.Flags().StringVar(&mockBranch, "branch", "", "branch receiving generated clients")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	data, err := repositories.LoadSeedFile(seedFile)
	if err != nil {
		return err
	}

	if geocode {
		if err := geocodeMissing(ctx, data); err != nil {
			return err
		}
	}

	if mockClients > 0 {
		if err := addMockClients(data); err != nil {
			return err
		}
	}

	conn, dialect, err := openDatabase()
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := repositories.InitSchema(ctx, conn, dialect); err != nil {
		return err
	}
	if err := repositories.Seed(ctx, conn, dialect, data); err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}

	cmd.Printf("Seeded %d branches and %d clients.\n", len(data.Branches), len(data.Clients))
	return nil
}

func geocodeMissing(ctx context.Context, data *repositories.SeedData) error {
	addresses := data.MissingAddresses()
	if len(addresses) == 0 {
		return nil
	}

	apiKey := config.Get("ORS_API_KEY", "")
	if strings.TrimSpace(apiKey) == "" {
		return errors.New("--geocode requires ORS_API_KEY")
	}

	client, err := distance.NewORSClient(apiKey, distance.ORSOptions{
		BaseURL: config.Get("ORS_BASE_URL", ""),
		Timeout: 10 * time.Second,
	})
	if err != nil {
		return err
	}

	resolved, err := client.GeocodeMany(ctx, addresses, country)
	if err != nil {
		return err
	}
	data.ApplyGeocodes(resolved)

	log.Info().Int("addresses", len(addresses)).Int("resolved", len(resolved)).Msg("geocoded seed records")
	return nil
}

func addMockClients(data *repositories.SeedData) error {
	matched := false
	for _, b := range data.Branches {
		if mockBranch != "" && strings.TrimSpace(b.BranchID) != mockBranch {
			continue
		}
		matched = true

		generated, err := repositories.GenerateMockClients(b, mockClients, mockRadius, mockSeed)
		if err != nil {
			return err
		}
		data.Clients = append(data.Clients, generated...)
	}

	if !matched {
		return fmt.Errorf("branch %q not found in seed file", mockBranch)
	}
	return nil
}
