package scbfs

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/blockweave/scb"
)

// ParallelConfig controls parallel chunk processing. Chunks within one
// chunked file are safe to process concurrently because each chunk is an
// independent SCB message with its own occurrence table (chunk_format.go);
// unlike blocks within a single message, chunks never share fingerprint
// state.
type ParallelConfig struct {
	// Enabled enables parallel chunk processing.
	Enabled bool

	// MaxWorkers is the maximum number of worker goroutines. If 0,
	// defaults to runtime.NumCPU().
	MaxWorkers int

	// MinChunksForParallel is the minimum number of chunks needed before
	// parallel processing is used instead of sequential. Defaults to 4.
	MinChunksForParallel int
}

// Validate checks if the parallel configuration is valid.
func (p *ParallelConfig) Validate() error {
	if !p.Enabled {
		return nil
	}

	if p.MaxWorkers < 0 {
		return errors.New("parallel max workers cannot be negative")
	}
	if p.MaxWorkers > 1024 {
		return errors.New("parallel max workers must not exceed 1024")
	}
	if p.MinChunksForParallel < 1 {
		return errors.New("parallel min chunks threshold must be at least 1")
	}
	if p.MinChunksForParallel > 1000 {
		return errors.New("parallel min chunks threshold must not exceed 1000")
	}

	return nil
}

// DefaultParallelConfig returns the default parallel processing
// configuration.
func DefaultParallelConfig() ParallelConfig {
	return ParallelConfig{
		Enabled:              true,
		MaxWorkers:           runtime.NumCPU(),
		MinChunksForParallel: 4,
	}
}

// chunkJob represents a single chunk's encryption or decryption work.
type chunkJob struct {
	plaintext  []byte
	ciphertext []byte
	err        error
}

// runChunkJobs runs fn over each job, in parallel once cfg calls for it.
func runChunkJobs(cfg ParallelConfig, jobs []chunkJob, fn func(*chunkJob) error) error {
	if len(jobs) == 0 {
		return nil
	}

	if !cfg.Enabled || len(jobs) < cfg.MinChunksForParallel {
		for i := range jobs {
			if err := fn(&jobs[i]); err != nil {
				return err
			}
		}
		return nil
	}

	numWorkers := cfg.MaxWorkers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if numWorkers > len(jobs) {
		numWorkers = len(jobs)
	}

	var wg sync.WaitGroup
	jobChan := make(chan int, len(jobs))
	errChan := make(chan error, numWorkers)

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					select {
					case errChan <- fmt.Errorf("panic in chunk worker: %v", r):
					default:
					}
				}
			}()
			for idx := range jobChan {
				if err := fn(&jobs[idx]); err != nil {
					select {
					case errChan <- err:
					default:
					}
					return
				}
			}
		}()
	}

	for i := range jobs {
		jobChan <- i
	}
	close(jobChan)

	wg.Wait()
	close(errChan)

	select {
	case err := <-errChan:
		return err
	default:
		return nil
	}
}

// parallelEncryptChunks encrypts each job's plaintext as an independent SCB
// message, optionally spreading the work over multiple goroutines.
func parallelEncryptChunks(cfg ParallelConfig, key scb.Key, params scb.Params, jobs []chunkJob) error {
	return runChunkJobs(cfg, jobs, func(j *chunkJob) error {
		ciphertext, err := scb.Encrypt(key, params, padForEncryption(j.plaintext))
		if err != nil {
			return err
		}
		j.ciphertext = ciphertext
		return nil
	})
}

// parallelDecryptChunks decrypts each job's ciphertext, optionally
// spreading the work over multiple goroutines.
func parallelDecryptChunks(cfg ParallelConfig, key scb.Key, params scb.Params, jobs []chunkJob) error {
	return runChunkJobs(cfg, jobs, func(j *chunkJob) error {
		plaintext, err := scb.Decrypt(key, params, j.ciphertext)
		if err != nil {
			return err
		}
		j.plaintext = plaintext
		return nil
	})
}
