package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	grpc_adapter "github.com/JoeShih716/go-custody-ledger/internal/app/core/adapter/in/grpc"
	journal_adapter "github.com/JoeShih716/go-custody-ledger/internal/app/core/adapter/out/journal"
	memory_adapter "github.com/JoeShih716/go-custody-ledger/internal/app/core/adapter/out/memory"
	mysql_adapter "github.com/JoeShih716/go-custody-ledger/internal/app/core/adapter/out/mysql"
	payout_adapter "github.com/JoeShih716/go-custody-ledger/internal/app/core/adapter/out/payout"
	"github.com/JoeShih716/go-custody-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-custody-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-custody-ledger/internal/config"
	grpcpkg "github.com/JoeShih716/go-custody-ledger/pkg/grpc"
	"github.com/JoeShih716/go-custody-ledger/pkg/logging"
	"github.com/JoeShih716/go-custody-ledger/pkg/mysql"
	"github.com/JoeShih716/go-custody-ledger/pkg/wal"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		cfgPath string
		envFile string
	)
	cmd := &cobra.Command{
		Use:          "core",
		Short:        "Custodial ledger gRPC server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.LoadDotEnv(envFile); err != nil {
				return err
			}
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", config.DefaultPath, "path to config yaml")
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "optional .env file")
	cmd.AddCommand(newPayoutDevCmd())
	return cmd
}

// newPayoutDevCmd 架設以記憶體 Vault 為後端的假出金服務 (開發用)
func newPayoutDevCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "payout-dev",
		Short: "Run an in-memory payout service for local development",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := logging.New("debug", true)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			lis, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("failed to listen: %w", err)
			}
			s := grpc.NewServer()
			payout_adapter.RegisterPayoutServiceServer(s, payout_adapter.NewSinkServer(memory_adapter.NewVault()))

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			go func() {
				<-ctx.Done()
				s.GracefulStop()
			}()
			logger.Info("payout dev server listening", zap.String("addr", addr))
			return s.Serve(lis)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":50061", "listen address")
	return cmd
}

func run(ctx context.Context, cfg config.Config) error {
	// 1. Logger
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	limits := domain.Limits{
		WithdrawalLimit: domain.Amount(cfg.Ledger.WithdrawalLimit),
		BankCap:         domain.Amount(cfg.Ledger.BankCap),
	}

	// 健康狀態，journal 寫入失敗時會標記 NOT_SERVING
	healthServer := health.NewServer()

	// 2. 出金 (Transfer Sink)
	var transfer usecase.TransferSink
	switch cfg.Payout.Mode {
	case config.PayoutGRPC:
		pool := grpcpkg.NewPool(grpcpkg.WithInterceptor(payoutCallLogger(logger)))
		defer pool.Close()
		transfer = payout_adapter.NewRemoteSink(pool, cfg.Payout.Target, cfg.Payout.Timeout, logger)
	default:
		logger.Warn("using in-memory payout vault, withdrawals move no real value")
		transfer = memory_adapter.NewVault()
	}

	// 3. MySQL Client (選用)
	var dbClient *mysql.Client
	if cfg.MySQL.Enabled || cfg.Ledger.Backend == config.BackendMySQL {
		dbClient, err = mysql.NewClient(cfg.MySQL, logger)
		if err != nil {
			return err
		}
		defer dbClient.Close()
		logger.Info("connected to mysql", zap.String("host", cfg.MySQL.Host))
	}

	// 4. 事件 (Event Sink)
	var sinks usecase.FanOut
	var walFile *wal.WAL
	if cfg.Journal.Enabled {
		var opts []wal.Option
		if cfg.Journal.NoSync {
			opts = append(opts, wal.WithoutSync())
		}
		walFile, err = wal.Open(cfg.Journal.Path, opts...)
		if err != nil {
			return err
		}
		// 程式結束時關閉 WAL
		defer walFile.Close()
		sinks = append(sinks, journal_adapter.NewJournal(walFile, logger,
			journal_adapter.WithHealth(healthServer, "", grpc_adapter.LedgerService_ServiceName),
		))
	}
	if dbClient != nil {
		if err := mysql_adapter.Migrate(dbClient.DB().WithContext(ctx)); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		store := mysql_adapter.NewEventStore(dbClient, 0, logger)
		store.Start(context.Background())
		defer store.Close()
		sinks = append(sinks, store)
	}

	// 5. 帳本
	var ledger usecase.Ledger
	switch cfg.Ledger.Backend {
	case config.BackendMySQL:
		mysqlLedger := mysql_adapter.NewMySQLLedger(dbClient, limits, transfer, sinks, logger)
		if err := mysqlLedger.Init(ctx); err != nil {
			return err
		}
		ledger = mysqlLedger
	default:
		opts := []memory_adapter.Option{memory_adapter.WithLogger(logger)}
		if walFile != nil {
			state, err := memory_adapter.RecoverState(walFile, limits)
			if err != nil {
				return fmt.Errorf("recover from journal: %w", err)
			}
			logger.Info("ledger recovered from journal",
				zap.Int("owners", len(state.Balances)),
				zap.Uint64("total_deposits", uint64(state.TotalDeposits)),
				zap.Uint64("sequence", state.Sequence()),
			)
			opts = append(opts, memory_adapter.WithState(state))
		}
		mutexLedger, err := memory_adapter.NewMutexLedger(limits, transfer, sinks, opts...)
		if err != nil {
			return err
		}
		ledger = mutexLedger
	}

	// 6. UseCase 與 gRPC Adapter
	coreUseCase := usecase.NewCoreUseCase(ledger, logger)
	grpcServer := grpc_adapter.NewGrpcServer(coreUseCase)

	lis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s := grpc.NewServer()
	grpc_adapter.RegisterLedgerServiceServer(s, grpcServer)
	healthpb.RegisterHealthServer(s, healthServer)
	healthServer.SetServingStatus(grpc_adapter.LedgerService_ServiceName, healthpb.HealthCheckResponse_SERVING)
	if cfg.GRPC.Reflection {
		reflection.Register(s)
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting grpc server",
			zap.String("addr", cfg.GRPC.Addr),
			zap.String("backend", cfg.Ledger.Backend),
			zap.Uint64("withdrawal_limit", uint64(limits.WithdrawalLimit)),
			zap.Uint64("bank_cap", uint64(limits.BankCap)),
		)
		serveErr <- s.Serve(lis)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("failed to serve: %w", err)
		}
	}
	logger.Info("shutting down server...")
	healthServer.Shutdown()
	s.GracefulStop()
	logger.Info("server exited")
	return nil
}

// payoutCallLogger 記錄每次出金 RPC 的耗時與結果
func payoutCallLogger(logger *zap.Logger) grpc.UnaryClientInterceptor {
	logger = logger.Named("payout_rpc")
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		start := time.Now()
		err := invoker(ctx, method, req, reply, cc, opts...)
		logger.Debug("call",
			zap.String("method", method),
			zap.String("target", cc.Target()),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return err
	}
}
