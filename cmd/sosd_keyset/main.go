// Command sosd_keyset samples a query workload against an SOSD key range
// and writes it as a packed, headerless key file (§6.3) cmd/sosd_experiment
// reads back via --keyset-url.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"airindex/pkg/common"
	"airindex/pkg/dataset"
	"airindex/pkg/keyset"
)

func main() {
	sosdBlobURL := flag.String("sosd-blob-url", "", "SOSD key array to sample the key range from")
	sosdDtype := flag.String("sosd-dtype", "uint64", "key width: uint32 or uint64")
	distribution := flag.String("distribution", "uniform", "uniform or zipfian")
	zipfTheta := flag.Float64("zipf-theta", 1.5, "Zipfian skew parameter (theta > 1)")
	numKeys := flag.Int("num-keys", 100000, "number of query keys to sample")
	outPath := flag.String("out-path", "keyset.bin", "packed output file")
	flag.Parse()

	if *sosdBlobURL == "" {
		log.Fatal("sosd_keyset: --sosd-blob-url is required")
	}
	dtype, err := common.ParseDtype(*sosdDtype)
	if err != nil {
		log.Fatalf("sosd_keyset: %v", err)
	}

	keys, err := dataset.LoadSOSDKeys(*sosdBlobURL, dtype)
	if err != nil {
		log.Fatalf("sosd_keyset: %v", err)
	}
	if len(keys) == 0 {
		log.Fatal("sosd_keyset: dataset is empty")
	}
	minKey, maxKey := keys[0], keys[len(keys)-1]

	var sampled []common.Key
	switch *distribution {
	case "uniform":
		sampled = keyset.SampleUniform(minKey, maxKey, *numKeys)
	case "zipfian":
		sampled, err = keyset.SampleZipfian(minKey, maxKey, *numKeys, *zipfTheta)
		if err != nil {
			log.Fatalf("sosd_keyset: %v", err)
		}
	default:
		log.Fatalf("sosd_keyset: unknown --distribution %q (want uniform or zipfian)", *distribution)
	}

	if err := keyset.WritePacked(*outPath, sampled, dtype); err != nil {
		log.Fatalf("sosd_keyset: %v", err)
	}
	fmt.Fprintf(os.Stdout, "wrote %d %s keys to %s (range [%d, %d])\n", len(sampled), *distribution, *outPath, minKey, maxKey)
}
