// Command churnctl scores customer records from the command line and
// provides small development helpers for the churn service.
//
//	churnctl predict [-input file|-] [-format text|json] [-addr host:port]
//	churnctl features
//	churnctl token -secret s -client id -scopes churn:predict,churn:read
//	churnctl certs -out dir [-hosts localhost,127.0.0.1]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/application/dto"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/domain/model"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/domain/service"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/infrastructure/artifact"
	grpcPresentation "github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/presentation/grpc"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/pkg/auth"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/pkg/observability"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/pkg/tlsutil"
)

const (
	defaultSchemaURI = "configs/feature_schema.yaml"
	defaultBundleURI = "configs/churn_model.json"
)

// demoCustomer is scored when no input is given.
var demoCustomer = map[string]any{
	"Tenure":                      9.0,
	"CityTier":                    1,
	"WarehouseToHome":             5.0,
	"HourSpendOnApp":              4.0,
	"NumberOfDeviceRegistered":    4,
	"SatisfactionScore":           4,
	"NumberOfAddress":             3,
	"Complain":                    1,
	"OrderAmountHikeFromlastYear": 3.0,
	"CouponUsed":                  3,
	"OrderCount":                  2,
	"DaySinceLastOrder":           3,
	"CashbackAmount":              43.0,
	"PreferredLoginDevice":        "Phone",
	"PreferredPaymentMode":        "Debit Card",
	"Gender":                      "Male",
	"PreferedOrderCat":            "Fashion",
	"MaritalStatus":               "Married",
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "churnctl: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cmd := "predict"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "predict":
		return runPredict(ctx, args, stdin, stdout, stderr)
	case "features":
		return runFeatures(ctx, args, stdout, stderr)
	case "token":
		return runToken(args, stdout, stderr)
	case "certs":
		return runCerts(args, stdout, stderr)
	default:
		return fmt.Errorf("unknown command %q (want predict, features, token or certs)", cmd)
	}
}

type artifactFlags struct {
	schema   string
	bundle   string
	region   string
	logLevel string
}

func (a *artifactFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&a.schema, "schema", envOr("SCHEMA_URI", defaultSchemaURI), "feature schema path or s3:// URI")
	fs.StringVar(&a.bundle, "model", envOr("MODEL_BUNDLE_URI", defaultBundleURI), "model bundle path or s3:// URI")
	fs.StringVar(&a.region, "region", envOr("AWS_REGION", "us-east-1"), "AWS region for s3:// artifacts")
	fs.StringVar(&a.logLevel, "log-level", "warn", "log level")
}

func (a *artifactFlags) load(ctx context.Context, stderr io.Writer) (*artifact.Artifacts, *slog.Logger, error) {
	logger, _ := observability.InitLogger(observability.LogConfig{Level: a.logLevel, Format: "text", Output: stderr})

	var s3Source artifact.Source
	if artifact.IsS3(a.schema, a.bundle) {
		src, err := artifact.NewS3SourceFromEnv(ctx, a.region)
		if err != nil {
			return nil, nil, err
		}
		s3Source = src
	}
	arts, err := artifact.NewLoader(artifact.NewRouter(s3Source), logger).Load(ctx, a.schema, a.bundle)
	if err != nil {
		return nil, nil, err
	}
	return arts, logger, nil
}

func runPredict(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("predict", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		af       artifactFlags
		input    = fs.String("input", "", "JSON record file, or - for stdin (default: demo customer)")
		format   = fs.String("format", "text", "output format: text or json")
		addr     = fs.String("addr", "", "score through a running churnd gRPC endpoint instead of in-process")
		caFile   = fs.String("ca", "", "CA certificate for a TLS gRPC endpoint")
		insecTLS = fs.Bool("insecure-skip-verify", false, "skip TLS verification (development only)")
		plain    = fs.Bool("plaintext", false, "connect to the gRPC endpoint without TLS")
		token    = fs.String("token", os.Getenv("CHURN_TOKEN"), "bearer token for the gRPC endpoint")
		timeout  = fs.Duration("timeout", 10*time.Second, "request timeout")
	)
	af.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *format != "text" && *format != "json" {
		return fmt.Errorf("unknown format %q", *format)
	}

	customerID, features, err := readRecord(*input, stdin)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	var resp dto.PredictionResponse
	if *addr != "" {
		resp, err = predictRemote(ctx, *addr, *caFile, *insecTLS, *plain, *token, customerID, features)
	} else {
		resp, err = predictLocal(ctx, af, stderr, features)
	}
	if err != nil {
		return err
	}
	resp.CustomerID = customerID

	if *format == "json" {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	return printText(stdout, resp)
}

func predictLocal(ctx context.Context, af artifactFlags, stderr io.Writer, features map[string]any) (dto.PredictionResponse, error) {
	arts, logger, err := af.load(ctx, stderr)
	if err != nil {
		return dto.PredictionResponse{}, err
	}
	reconciler, err := service.NewInferenceReconciler(arts.Schema, arts.Pipeline, logger)
	if err != nil {
		return dto.PredictionResponse{}, err
	}
	resp := dto.FromOutcome(reconciler.Predict(ctx, model.RawCustomerRecord(features)))
	resp.ModelVersion = reconciler.ModelVersion()
	return resp, nil
}

func predictRemote(ctx context.Context, addr, caFile string, skipVerify, plaintext bool, token, customerID string, features map[string]any) (dto.PredictionResponse, error) {
	creds := insecure.NewCredentials()
	if !plaintext {
		tlsCreds, err := tlsutil.ClientCredentials(caFile, skipVerify)
		if err != nil {
			return dto.PredictionResponse{}, err
		}
		creds = tlsCreds
	}
	conn, err := grpclib.NewClient(addr, grpclib.WithTransportCredentials(creds))
	if err != nil {
		return dto.PredictionResponse{}, fmt.Errorf("failed to dial %s: %w", addr, err)
	}
	defer conn.Close()

	if token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)
	}
	reply, err := grpcPresentation.NewChurnServiceClient(conn).Predict(ctx, &grpcPresentation.PredictRequest{
		CustomerID: customerID,
		Features:   features,
	})
	if err != nil {
		return dto.PredictionResponse{}, fmt.Errorf("remote prediction failed: %w", err)
	}
	return dto.PredictionResponse{
		Prediction:       reply.Prediction,
		ChurnProbability: reply.ChurnProbability,
		Confidence:       reply.Confidence,
		RiskLevel:        reply.RiskLevel,
		Recommendations:  reply.Recommendations,
		Fallback:         reply.Fallback,
		FallbackStage:    reply.FallbackStage,
		ModelVersion:     reply.ModelVersion,
	}, nil
}

// readRecord accepts either {"customer_id": ..., "features": {...}} or a bare
// feature map.
func readRecord(input string, stdin io.Reader) (string, map[string]any, error) {
	if input == "" {
		return "", demoCustomer, nil
	}

	var r io.Reader = stdin
	if input != "-" {
		f, err := os.Open(input)
		if err != nil {
			return "", nil, fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	var raw map[string]any
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil || raw == nil {
		return "", nil, errors.New("input must be a JSON object")
	}

	customerID, _ := raw["customer_id"].(string)
	if features, ok := raw["features"].(map[string]any); ok {
		return customerID, features, nil
	}
	delete(raw, "customer_id")
	return customerID, raw, nil
}

func printText(w io.Writer, resp dto.PredictionResponse) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if resp.CustomerID != "" {
		fmt.Fprintf(tw, "Customer:\t%s\n", resp.CustomerID)
	}
	fmt.Fprintf(tw, "Prediction:\t%s\n", resp.Prediction)
	fmt.Fprintf(tw, "Churn probability:\t%s\n", resp.ChurnProbability)
	fmt.Fprintf(tw, "Confidence:\t%s\n", resp.Confidence)
	fmt.Fprintf(tw, "Risk level:\t%s\n", resp.RiskLevel)
	if resp.Fallback {
		fmt.Fprintf(tw, "Fallback:\t%s\n", resp.FallbackStage)
	}
	if resp.ModelVersion != "" {
		fmt.Fprintf(tw, "Model:\t%s\n", resp.ModelVersion)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(w, "Recommendations:")
	for _, rec := range resp.Recommendations {
		fmt.Fprintf(w, "  - %s\n", rec)
	}
	return nil
}

func runFeatures(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("features", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var af artifactFlags
	af.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	arts, _, err := af.load(ctx, stderr)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Model %s, %d features:\n", arts.Pipeline.Version(), len(arts.Pipeline.FeatureNames()))
	for _, name := range arts.Pipeline.FeatureNames() {
		fmt.Fprintln(stdout, name)
	}
	return nil
}

func runToken(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		secret  = fs.String("secret", os.Getenv("JWT_SECRET"), "HMAC secret")
		keyFile = fs.String("private-key", "", "RSA private key PEM file (overrides -secret)")
		issuer  = fs.String("issuer", envOr("JWT_ISSUER", "churn"), "token issuer")
		client  = fs.String("client", "churnctl", "client id")
		scopes  = fs.String("scopes", auth.ScopePredict+","+auth.ScopeRead, "comma-separated scopes")
		ttl     = fs.Duration("ttl", auth.DefaultExpiration, "token lifetime")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := auth.JWTConfig{Secret: *secret, Issuer: *issuer, Expiration: *ttl}
	if *keyFile != "" {
		pem, err := auth.LoadKeyFromFile(*keyFile)
		if err != nil {
			return err
		}
		cfg.PrivateKeyPEM = string(pem)
	}
	svc, err := auth.NewJWTService(cfg)
	if err != nil {
		return err
	}
	token, err := svc.GenerateToken(*client, strings.Split(*scopes, ","))
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, token)
	return nil
}

func runCerts(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("certs", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		out   = fs.String("out", "certs", "output directory")
		hosts = fs.String("hosts", "localhost,127.0.0.1", "comma-separated DNS names and IPs")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	paths, err := tlsutil.GenerateDevCerts(strings.Split(*hosts, ","), *out)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "CA:          %s\nServer cert: %s\nServer key:  %s\n", paths.CA, paths.ServerCrt, paths.ServerKey)
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
