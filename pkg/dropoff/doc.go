// Package dropoff finds where multi-step transactions fail by reading their
// raw, mixed-format logs.
//
// Quick start:
//
//	a, err := dropoff.New(dropoff.WithEpochs(10))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer a.Close()
//
//	res, _ := a.Analyze(ctx, lines)
//	fmt.Println(res.Assessment().Message)
//
// Each line is reduced to a timestamp, event symbol, transaction id and
// severity. Lines are grouped per transaction, encoded against a vocabulary
// that grows across Analyze calls, and used to train a small LSTM that
// predicts whether a sequence reaches the success screen. Failed
// transactions are ranked by the last step they reached.
//
// An Analyzer is safe for concurrent use.
package dropoff
