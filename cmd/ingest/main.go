package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"montecarlo-forecast/internal/config"
	"montecarlo-forecast/internal/data"
	"montecarlo-forecast/internal/logging"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// defaultConcepts maps metric columns to the us-gaap concepts that feed them.
const defaultConcepts = "revenue=Revenues,net_income=NetIncomeLoss,operating_income=OperatingIncomeLoss,total_assets=Assets,total_liabilities=Liabilities"

func main() {
	var (
		cfgPath       = flag.String("config", os.Getenv("FORECAST_CONFIG"), "Path to YAML config (optional)")
		tickers       = flag.String("tickers", "", "Comma-separated tickers to ingest (default: every company in the companies file)")
		concepts      = flag.String("concepts", defaultConcepts, "Comma-separated metric=Concept pairs")
		companiesPath = flag.String("companies", "", "Companies file (default: ./data/companies.json)")
		refresh       = flag.Bool("refresh-companies", false, "Download the SEC ticker list into the companies file first")
		delay         = flag.Duration("delay", 150*time.Millisecond, "Pause between EDGAR requests")
	)
	flag.Parse()
	_ = godotenv.Load()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Format)

	if *companiesPath == "" {
		*companiesPath = data.DefaultCompaniesPath()
	}
	metricConcepts, err := parseConcepts(*concepts)
	if err != nil {
		log.WithError(err).Fatal("invalid --concepts")
	}

	client := data.NewEdgarClient(cfg.Edgar.UserAgent, cfg.Edgar.BaseURL, cfg.Edgar.CacheTTL)
	client.Log = log
	ctx := context.Background()

	// Load existing companies as seed; sectors are only ever set by hand.
	list, err := data.LoadCompanies(*companiesPath)
	if err != nil {
		log.WithField("path", *companiesPath).Info("no companies file yet")
		list = &data.CompanyList{}
	}

	if *refresh {
		list, err = refreshCompanies(ctx, client, list)
		if err != nil {
			log.WithError(err).Fatal("failed to refresh companies")
		}
		if err := data.SaveCompanies(list, *companiesPath); err != nil {
			log.WithError(err).Fatal("failed to save companies")
		}
		log.WithFields(logrus.Fields{"path": *companiesPath, "count": len(list.Companies)}).Info("companies saved")
	}

	var targets []data.Company
	if *tickers == "" {
		targets = list.Companies
	} else {
		for _, t := range strings.Split(*tickers, ",") {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			c, ok := list.Lookup(t)
			if !ok {
				log.WithField("ticker", t).Warn("ticker not in companies file, skipping (try --refresh-companies)")
				continue
			}
			targets = append(targets, c)
		}
	}
	if len(targets) == 0 {
		log.Fatal("nothing to ingest")
	}

	store, err := data.Open(cfg.Database.Path)
	if err != nil {
		log.WithError(err).Fatal("failed to open database")
	}
	defer store.Close()
	store.Log = log

	ok := 0
	for _, c := range targets {
		if err := ingestCompany(ctx, client, store, cfg.Database.Table, c, metricConcepts, *delay, log); err != nil {
			log.WithError(err).WithField("ticker", c.Ticker).Warn("ingest failed")
			continue
		}
		ok++
	}
	log.WithFields(logrus.Fields{"ingested": ok, "requested": len(targets), "db": cfg.Database.Path}).Info("ingest complete")
}

// metricConcept pairs a metric column with its EDGAR concept.
type metricConcept struct {
	Metric  string
	Concept string
}

func parseConcepts(s string) ([]metricConcept, error) {
	var out []metricConcept
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		metric, concept, found := strings.Cut(pair, "=")
		metric, concept = strings.TrimSpace(metric), strings.TrimSpace(concept)
		if !found || concept == "" || !config.ValidIdentifier(metric) {
			return nil, fmt.Errorf("bad pair %q (want metric=Concept)", pair)
		}
		out = append(out, metricConcept{Metric: metric, Concept: concept})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no concepts given")
	}
	return out, nil
}

// refreshCompanies replaces the ticker directory with SEC's, keeping hand-set sectors.
func refreshCompanies(ctx context.Context, client *data.EdgarClient, existing *data.CompanyList) (*data.CompanyList, error) {
	fresh, err := client.CompanyTickers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range fresh {
		if prev, ok := existing.Lookup(fresh[i].Ticker); ok {
			fresh[i].Sector = prev.Sector
		}
	}
	sort.Slice(fresh, func(i, j int) bool { return fresh[i].Ticker < fresh[j].Ticker })
	return &data.CompanyList{
		Source:    "sec",
		UpdatedAt: time.Now().Format(time.RFC3339),
		Companies: fresh,
	}, nil
}

func ingestCompany(ctx context.Context, client *data.EdgarClient, store *data.SeriesStore, table string, c data.Company, concepts []metricConcept, delay time.Duration, log logrus.FieldLogger) error {
	log = log.WithField("ticker", c.Ticker)
	stored := 0
	for _, mc := range concepts {
		series, err := client.FetchAnnualSeries(ctx, c.CIK, mc.Concept)
		time.Sleep(delay)
		if err != nil {
			// Many filers never report some concepts; keep going.
			log.WithError(err).WithField("concept", mc.Concept).Warn("concept unavailable")
			continue
		}
		if series.Len() == 0 {
			continue
		}
		if err := store.UpsertObservations(ctx, table, c.Ticker, mc.Metric, series.Observations); err != nil {
			return fmt.Errorf("store %s: %w", mc.Metric, err)
		}
		stored++
		log.WithFields(logrus.Fields{"metric": mc.Metric, "years": series.Len()}).Info("stored")
	}
	if stored == 0 {
		return fmt.Errorf("no concepts available for %s", c.Ticker)
	}
	if c.Sector != "" {
		if err := store.SetSector(ctx, table, c.Ticker, c.Sector); err != nil {
			return fmt.Errorf("set sector: %w", err)
		}
	}
	return nil
}
