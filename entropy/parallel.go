package entropy

import "sync"

// CodeBlockJob is one code-block's decode inputs: its compressed byte
// segment and the parameters to construct a decoder for it.
type CodeBlockJob struct {
	Data          []byte
	Width, Height int
	SubBand       SubBand
	NoPasses      uint8
	MagnitudeBits uint8
	ZeroBitPlanes uint8
}

// CodeBlockResult pairs a job's coefficients with any error encountered
// decoding it, indexed back to its position in the input slice.
type CodeBlockResult struct {
	Coefficients []int32
	Err          error
}

// DecodeCodeBlocks decodes every job concurrently on a worker pool bounded
// to concurrency, and returns results in the same order as jobs. Each job
// gets a fresh MQDecoder and CodeBlockDecoder — per §9, arithmetic-decoder
// context state must never be shared across code-blocks — so this is safe
// precisely because each decode is pure over its own immutable byte
// segment (§5's "parallel at coarser granularity" permission).
func DecodeCodeBlocks(jobs []CodeBlockJob, concurrency int) []CodeBlockResult {
	if concurrency < 1 {
		concurrency = 1
	}
	results := make([]CodeBlockResult, len(jobs))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, job := range jobs {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, job CodeBlockJob) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = decodeOne(job)
		}(i, job)
	}
	wg.Wait()
	return results
}

func decodeOne(job CodeBlockJob) CodeBlockResult {
	decoder, err := NewCodeBlockDecoder(job.Width, job.Height, job.SubBand, job.NoPasses, job.MagnitudeBits)
	if err != nil {
		return CodeBlockResult{Err: err}
	}
	decoder.SetNumZeroBitPlanes(job.ZeroBitPlanes)
	mq := NewMQDecoder(job.Data)
	if err := decoder.Decode(mq); err != nil {
		return CodeBlockResult{Err: err}
	}
	return CodeBlockResult{Coefficients: decoder.Coefficients()}
}
