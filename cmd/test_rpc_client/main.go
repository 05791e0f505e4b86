package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"google.golang.org/protobuf/types/known/emptypb"

	grpc_adapter "github.com/JoeShih716/go-custody-ledger/internal/app/core/adapter/in/grpc"
	grpcpkg "github.com/JoeShih716/go-custody-ledger/pkg/grpc"
)

func main() {
	var (
		target      string
		totalCount  int
		concurrency int
		amount      uint64
		owners      int
		withdraw    bool
	)
	cmd := &cobra.Command{
		Use:   "test_rpc_client",
		Short: "Load test the ledger gRPC service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if owners <= 0 || concurrency <= 0 || totalCount < 0 {
				return fmt.Errorf("owners and concurrency must be positive, total non-negative")
			}
			pool := grpcpkg.NewPool()
			defer pool.Close()
			conn, err := pool.GetConnection(target)
			if err != nil {
				return err
			}
			c := grpc_adapter.NewLedgerServiceClient(conn)

			ctx, cancel := context.WithTimeout(cmd.Context(), 120*time.Second)
			defer cancel()

			var (
				wg       sync.WaitGroup
				accepted atomic.Int64
				rejected atomic.Int64
			)
			wg.Add(totalCount)
			sem := make(chan struct{}, concurrency)
			startTime := time.Now()

			for i := 0; i < totalCount; i++ {
				sem <- struct{}{}

				go func(idx int) {
					defer wg.Done()
					defer func() { <-sem }()

					req := &grpc_adapter.OperationRequest{
						RefID:  uuid.NewString(),
						Owner:  fmt.Sprintf("owner-%d", idx%owners),
						Amount: amount,
					}
					call := c.Deposit
					if withdraw && idx%2 == 1 {
						call = c.Withdraw
					}
					resp, err := call(ctx, req)
					if err != nil {
						if idx%10000 == 0 {
							log.Printf("request %d failed: %v", idx, err)
						}
						return
					}
					if resp.Success {
						accepted.Add(1)
					} else {
						rejected.Add(1)
					}
				}(i)
			}

			wg.Wait()
			elapsed := time.Since(startTime)

			sum, err := c.Summary(ctx, &emptypb.Empty{})
			if err != nil {
				return err
			}
			fmt.Printf("Completed %d requests in %v (accepted=%d rejected=%d)\n",
				totalCount, elapsed, accepted.Load(), rejected.Load())
			fmt.Printf("TPS: %.2f\n", float64(totalCount)/elapsed.Seconds())
			fmt.Printf("Summary: total=%d cap=%d limit=%d deposits=%d withdrawals=%d\n",
				sum.TotalDeposits, sum.BankCap, sum.WithdrawalLimit, sum.DepositCount, sum.WithdrawalCount)
			return nil
		},
	}
	cmd.Flags().StringVar(&target, "target", "localhost:50051", "ledger server address")
	cmd.Flags().IntVar(&totalCount, "total", 100000, "number of requests")
	cmd.Flags().IntVar(&concurrency, "concurrency", 1000, "in-flight requests")
	cmd.Flags().Uint64Var(&amount, "amount", 1, "amount per request")
	cmd.Flags().IntVar(&owners, "owners", 100, "number of distinct owners")
	cmd.Flags().BoolVar(&withdraw, "withdraw", false, "alternate deposits and withdrawals")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
