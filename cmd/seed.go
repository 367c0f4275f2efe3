package cmd

import (
	"context"

	"example.com/geomap/command-control/config"
	"example.com/geomap/command-control/internal/database"
	"example.com/geomap/command-control/internal/models"
	"example.com/geomap/command-control/internal/repository"
	"example.com/geomap/command-control/internal/simulator"

	"github.com/spf13/cobra"
)

var (
	seedAssets      int
	seedDevices     int
	seedLocations   int
	seedEngagements int
)

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate the database with simulated sample data",
	Long: `Generates randomized assets, devices, locations, and pending
engagements in the LA and San Diego simulation areas. Intended for demo
and development environments.`,
	Run: func(cmd *cobra.Command, args []string) {
		runSeed()
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().IntVar(&seedAssets, "assets", 10, "Number of assets per side (friendly and enemy)")
	seedCmd.Flags().IntVar(&seedDevices, "devices", 8, "Number of devices")
	seedCmd.Flags().IntVar(&seedLocations, "locations", 8, "Number of locations")
	seedCmd.Flags().IntVar(&seedEngagements, "engagements", 3, "Number of pending engagements")
}

func runSeed() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Info("Connecting to database...")
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	repo := repository.NewRepository(db)
	gen := simulator.New()
	ctx := context.Background()

	areaFor := func(i int) simulator.Area {
		// roughly 5:3 split between the two simulation areas
		if i%8 < 5 {
			return simulator.AreaLA
		}
		return simulator.AreaSanDiego
	}

	var friendlyAssets, enemyAssets []*models.Asset

	for i := 0; i < seedAssets; i++ {
		asset := gen.Asset(areaFor(i), true)
		if err := repo.CreateAsset(ctx, asset); err != nil {
			log.Fatalf("Failed to seed asset: %v", err)
		}
		friendlyAssets = append(friendlyAssets, asset)

		enemy := gen.Asset(areaFor(i), false)
		if err := repo.CreateAsset(ctx, enemy); err != nil {
			log.Fatalf("Failed to seed asset: %v", err)
		}
		enemyAssets = append(enemyAssets, enemy)
	}
	log.Infof("Seeded %d assets", seedAssets*2)

	for i := 0; i < seedDevices; i++ {
		if err := repo.CreateDevice(ctx, gen.Device(areaFor(i))); err != nil {
			log.Fatalf("Failed to seed device: %v", err)
		}
	}
	log.Infof("Seeded %d devices", seedDevices)

	for i := 0; i < seedLocations; i++ {
		zone := "LA"
		if areaFor(i) == simulator.AreaSanDiego {
			zone = "San Diego"
		}
		if err := repo.CreateLocation(ctx, gen.Location(zone)); err != nil {
			log.Fatalf("Failed to seed location: %v", err)
		}
	}
	log.Infof("Seeded %d locations", seedLocations)

	for i := 0; i < seedEngagements && i < len(friendlyAssets) && i < len(enemyAssets); i++ {
		engagement := gen.Engagement(friendlyAssets[i], enemyAssets[i])
		if err := repo.CreateEngagement(ctx, engagement); err != nil {
			log.Fatalf("Failed to seed engagement: %v", err)
		}
	}
	log.Infof("Seeded %d engagements", seedEngagements)

	log.Info("Seed complete")
}
