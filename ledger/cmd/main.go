package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Luismorlan/ticket_chain/commands"
	"github.com/Luismorlan/ticket_chain/config"
	"github.com/Luismorlan/ticket_chain/ledger"
	"github.com/Luismorlan/ticket_chain/model"
	"github.com/Luismorlan/ticket_chain/service"
	"github.com/Luismorlan/ticket_chain/store"
	"github.com/Luismorlan/ticket_chain/utils"
	flag "github.com/spf13/pflag"
	"google.golang.org/grpc"
)

var (
	configPath    = flag.String("config_path", "", "path to the node config, defaults are used when empty")
	listenAddr    = flag.String("listen_addr", "", "address to serve wallets on, overrides the config")
	difficulty    = flag.Int("difficulty", -1, "leading zero bits of a valid block hash, overrides the config")
	issuerKeyPath = flag.String("issuer_key_path", "", "PEM key of the issuing authority, overrides the config")
	newIssuer     = flag.Bool("new_issuer", false, "generate a fresh issuer key at issuer_key_path")
	storeKind     = flag.String("store_kind", "", "file or bolt, overrides the config")
	storePath     = flag.String("store_path", "", "where the chain is persisted, overrides the config")
	mineInterval  = flag.Duration("mine_interval", 0, "start background mining at this interval")
	verbose       = flag.BoolP("verbose", "v", false, "debug logging")
)

func loadConfig() (config.AppConfig, error) {
	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return cfg, err
		}
	}
	if flag.CommandLine.Changed("listen_addr") {
		cfg.LISTEN_ADDR = *listenAddr
	}
	if flag.CommandLine.Changed("difficulty") {
		cfg.DIFFICULTY = *difficulty
	}
	if flag.CommandLine.Changed("issuer_key_path") {
		cfg.ISSUER_KEY_PATH = *issuerKeyPath
	}
	if flag.CommandLine.Changed("store_kind") {
		cfg.STORE_KIND = *storeKind
	}
	if flag.CommandLine.Changed("store_path") {
		cfg.STORE_PATH = *storePath
	}
	if flag.CommandLine.Changed("mine_interval") {
		cfg.MINE_INTERVAL = *mineInterval
	}
	return cfg, cfg.Validate()
}

func loadAuthority(cfg config.AppConfig) (model.PublicKey, error) {
	if *newIssuer {
		sk, err := utils.ParseKeyFile(cfg.ISSUER_KEY_PATH, true)
		if err != nil {
			return nil, err
		}
		return utils.PublicKeyToBytes(&sk.PublicKey)
	}
	return utils.ReadPublicKeyFromFPath(cfg.ISSUER_KEY_PATH)
}

func ParseCommand(cmd chan commands.Command) {
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("> ")
		text, err := reader.ReadString('\n')
		if err != nil {
			close(cmd)
			return
		}
		c, err := commands.CreateCommand(strings.TrimSpace(text))
		if err != nil {
			log.Println(err)
			continue
		}
		cmd <- c
	}
}

// HandleCommand runs the console commands until the input is closed.
func HandleCommand(cmd chan commands.Command, server *ledger.LedgerServer, interval time.Duration) {
	for c := range cmd {
		switch c.Op {
		case commands.START:
			if err := server.StartMining(interval); err != nil {
				log.Println(err)
				continue
			}
			log.Println("mining started, interval", interval)
		case commands.STOP:
			if err := server.StopMining(); err != nil {
				log.Println(err)
				continue
			}
			log.Println("mining stopped")
		case commands.MINE:
			b, err := server.MineOnce(context.Background(), 0)
			if err != nil {
				log.Println("mining failed:", err)
				continue
			}
			log.Printf("mined block %d %s with %d transactions", b.Index, utils.ShortenHex(b.Hash), len(b.Txs))
		case commands.SHOW:
			d, _ := strconv.Atoi(c.Args[0])
			if len(c.Args) == 2 {
				path, err := server.ShowPNG(d)
				if err != nil {
					log.Println(err)
					continue
				}
				log.Println("chain rendered to", path)
				continue
			}
			if err := server.Show(os.Stdout, d); err != nil {
				log.Println(err)
			}
		case commands.EXPORT:
			if err := server.ExportToFile(c.Args[0]); err != nil {
				log.Println("export failed:", err)
				continue
			}
			log.Println("chain exported to", c.Args[0])
		case commands.IMPORT:
			adopted, err := server.ImportFromFile(c.Args[0])
			if err != nil {
				log.Println("import failed:", err)
				continue
			}
			log.Println("adopted:", adopted, "height:", server.Ledger().Height())
		case commands.PENDING:
			pending := server.Ledger().Pending()
			log.Println(len(pending), "pending transactions")
			for _, tx := range pending {
				log.Println(" ", tx.Type, tx.TicketID)
			}
		default:
			log.Println("Unrecognized command:", c)
		}
	}
}

func main() {
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	authority, err := loadAuthority(cfg)
	if err != nil {
		log.Fatalf("failed to load issuer key: %v", err)
	}
	l, err := ledger.New(ledger.Options{
		Difficulty:   cfg.DIFFICULTY,
		MaxBatchSize: cfg.MAX_BATCH_SIZE,
		Authority:    authority,
		Logger:       logger,
	})
	if err != nil {
		log.Fatal(err)
	}
	s, err := store.Open(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer s.Close()

	server := ledger.NewLedgerServer(l, s, logger)
	if err := server.Restore(); err != nil {
		log.Fatal(err)
	}

	lis, err := net.Listen("tcp", cfg.LISTEN_ADDR)
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}
	grpcServer := grpc.NewServer()
	service.RegisterLedgerServiceServer(grpcServer, server)
	log.Printf("issuer %s, difficulty %d, height %d", utils.ShortenHex(l.Authority().String()), cfg.DIFFICULTY, l.Height())
	log.Println("Starting to serve at:", cfg.LISTEN_ADDR)

	interval := cfg.MINE_INTERVAL
	if interval == 0 {
		interval = 5 * time.Second
	} else if err := server.StartMining(interval); err != nil {
		log.Println(err)
	}

	cmd := make(chan commands.Command)
	go ParseCommand(cmd)
	go HandleCommand(cmd, server, interval)

	if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		log.Fatal(err)
	}
}
