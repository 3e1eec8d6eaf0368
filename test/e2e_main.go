package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/Alexveeuk/Vepi/api"
	"github.com/Alexveeuk/Vepi/exporter"
	"github.com/Alexveeuk/Vepi/importer"
	"github.com/Alexveeuk/Vepi/logger"
	"github.com/Alexveeuk/Vepi/types"
)

// End-to-end smoke test against a live Vena tenant. Requires:
//   - VENA_HUB, VENA_TEMPLATE_ID
//   - VENA_API_USER + VENA_API_KEY, or AWS credentials plus SSM parameters
//     under {VENA_SSM_PREFIX}/{hub}/
//   - VENA_MODEL_ID (optional, enables the export steps)
//   - VENA_S3_BUCKET (optional, archives the export to S3)
//
// The template must accept a five-column data set of
// Account, Department, Year, Month, Value.
func main() {
	fmt.Println("================================================================================")
	fmt.Println("  VENA GO SDK END-TO-END TEST")
	fmt.Println("  Submit → Poll → Export")
	fmt.Println("================================================================================")
	fmt.Println("")

	// Pick up a local .env if present.
	_ = godotenv.Load()

	ctx := context.Background()
	log := logger.New(os.Getenv("VENA_VERBOSE") != "")

	// Step 1: Configuration
	fmt.Println("Step 1: Load Configuration")
	fmt.Println("--------------------------------------------------------------------------------")

	cfg := api.LoadConfigFromEnv()
	cfg.Logger = log

	if cfg.APIUser == "" && os.Getenv("AWS_ACCESS_KEY_ID") != "" {
		fmt.Println("⏳ VENA_API_USER not set, loading credentials from SSM...")

		awsCfg, err := api.NewAWSConfig(ctx,
			os.Getenv("AWS_ACCESS_KEY_ID"),
			os.Getenv("AWS_SECRET_ACCESS_KEY"),
			envOrDefault("AWS_REGION", "us-east-1"),
		)
		if err != nil {
			fmt.Printf("❌ Failed to create AWS config: %v\n", err)
			os.Exit(1)
		}

		creds, err := api.LoadCredentialsFromSSM(ctx, awsCfg, os.Getenv("VENA_SSM_PREFIX"), cfg.Hub)
		if err != nil {
			fmt.Printf("❌ Failed to load credentials from SSM: %v\n", err)
			os.Exit(1)
		}

		cfg.APIUser = creds.APIUser
		cfg.APIKey = creds.APIKey

		fmt.Println("✅ Credentials loaded from SSM")
	}

	client, err := api.NewClient(cfg)
	if err != nil {
		fmt.Printf("❌ Failed to create client: %v\n", err)
		fmt.Println("   Set VENA_HUB, VENA_API_USER, VENA_API_KEY, and VENA_TEMPLATE_ID.")
		os.Exit(1)
	}

	fmt.Printf("✅ Client configured\n")
	fmt.Printf("   Endpoint: %s\n", client.BaseURL())
	fmt.Printf("   Model: %s\n\n", orNone(client.ModelID()))

	imp, err := importer.New(importer.Config{Client: client, Logger: log})
	if err != nil {
		fmt.Printf("❌ Failed to create importer: %v\n", err)
		os.Exit(1)
	}

	exp, err := exporter.New(exporter.Config{Client: client, Logger: log})
	if err != nil {
		fmt.Printf("❌ Failed to create exporter: %v\n", err)
		os.Exit(1)
	}

	// Step 2: Local validation, no network involved.
	fmt.Println("Step 2: Data Set Validation")
	fmt.Println("--------------------------------------------------------------------------------")

	empty := &types.DataSet{Columns: []string{"Account", "Value"}}
	if err := empty.Validate(); err == nil {
		fmt.Println("❌ Empty data set passed validation")
		os.Exit(1)
	}

	ds := &types.DataSet{
		Columns: []string{"Account", "Department", "Year", "Month", "Value"},
		Rows: [][]any{
			{"Sales", "Ops", "2026", "Jan", 1250.5},
			{"Sales", "Ops", "2026", "Feb", nil},
		},
	}

	if err := ds.Validate("Account", "Value"); err != nil {
		fmt.Printf("❌ Test data set failed validation: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Validation behaves as expected\n")
	fmt.Printf("   CSV preview: %d bytes\n\n", len(ds.CSVBytes()))

	// Step 3: Inline submission
	fmt.Println("Step 3: Submit Inline Data")
	fmt.Println("--------------------------------------------------------------------------------")

	start := time.Now()

	if err := imp.StartWithData(ctx, ds); err != nil {
		fmt.Printf("❌ Inline submission failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Inline job completed in %s\n\n", time.Since(start).Round(time.Second))

	// Step 4: File submission
	fmt.Println("Step 4: Submit CSV File")
	fmt.Println("--------------------------------------------------------------------------------")

	start = time.Now()

	if err := imp.StartWithFile(ctx, ds, "e2e-test.csv"); err != nil {
		fmt.Printf("❌ File submission failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ File job completed in %s\n\n", time.Since(start).Round(time.Second))

	// Step 5: Export (model-scoped, optional)
	var export *types.DataSet

	fmt.Println("Step 5: Export Intersections")
	fmt.Println("--------------------------------------------------------------------------------")

	if client.ModelID() == "" {
		fmt.Println("⏭  Skipped: VENA_MODEL_ID not set")
		fmt.Println("")
	} else {
		export, err = exp.ExportIntersections(ctx, 1000)
		if err != nil {
			fmt.Printf("❌ Export failed: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("✅ Exported %d rows, %d columns\n\n", len(export.Rows), len(export.Columns))

		fmt.Println("Step 5b: Dimension Hierarchy")
		fmt.Println("--------------------------------------------------------------------------------")

		members, err := exp.DimensionHierarchy(ctx)
		if err != nil {
			fmt.Printf("❌ Hierarchy retrieval failed: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("✅ Retrieved %d members across dimensions %v\n\n",
			len(members), types.Dimensions(members))
	}

	// Step 6: Archive to S3 (optional)
	fmt.Println("Step 6: Archive Export to S3")
	fmt.Println("--------------------------------------------------------------------------------")

	bucket := os.Getenv("VENA_S3_BUCKET")
	if bucket == "" || export == nil {
		fmt.Println("⏭  Skipped: VENA_S3_BUCKET not set or nothing exported")
		fmt.Println("")
	} else {
		awsCfg, err := api.NewAWSConfig(ctx,
			os.Getenv("AWS_ACCESS_KEY_ID"),
			os.Getenv("AWS_SECRET_ACCESS_KEY"),
			envOrDefault("AWS_REGION", "us-east-1"),
		)
		if err != nil {
			fmt.Printf("❌ Failed to create AWS config: %v\n", err)
			os.Exit(1)
		}

		sink := exporter.NewS3Sink(awsCfg, bucket, log)
		key := fmt.Sprintf("vena-exports/%s/%d.csv", client.ModelID(), time.Now().Unix())

		if err := sink.Put(ctx, key, export); err != nil {
			fmt.Printf("❌ S3 archive failed: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("✅ Archived to s3://%s/%s\n\n", bucket, key)
	}

	fmt.Println("================================================================================")
	fmt.Println("  ✅ VENA GO SDK END-TO-END TEST COMPLETE!")
	fmt.Println("================================================================================")
}

func envOrDefault(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultValue
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}

	return s
}
