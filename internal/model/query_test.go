package model

import (
	"math/big"
	"reflect"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestQueryWithFromBlockCopies(t *testing.T) {
	q := Query{FromBlock: 1, Logs: []LogFilter{{}}}
	next := q.WithFromBlock(100)
	if q.FromBlock != 1 {
		t.Fatalf("original query mutated: %d", q.FromBlock)
	}
	if next.FromBlock != 100 || len(next.Logs) != 1 {
		t.Fatalf("unexpected copy: %+v", next)
	}
}

func TestQueryValidate(t *testing.T) {
	end := uint64(5)
	cases := []struct {
		name string
		q    Query
		ok   bool
	}{
		{"empty", Query{}, true},
		{"inverted range", Query{FromBlock: 10, ToBlock: &end}, false},
		{"too many topics", Query{Logs: []LogFilter{{Topics: make([][]common.Hash, 5)}}}, false},
		{"join all without logs", Query{JoinMode: JoinAll, IncludeTransactions: true}, false},
		{"join all with logs", Query{JoinMode: JoinAll, IncludeTransactions: true, Logs: []LogFilter{{}}}, true},
		{"unknown field", Query{Fields: FieldSelection{Trace: []string{"gas"}}}, false},
	}
	for _, tc := range cases {
		err := tc.q.Validate()
		if (err == nil) != tc.ok {
			t.Fatalf("%s: unexpected result %v", tc.name, err)
		}
	}
}

func TestParseJoinMode(t *testing.T) {
	for input, want := range map[string]JoinMode{"": JoinNothing, "join_all": JoinAll, "ALL": JoinAll, "join-nothing": JoinNothing} {
		got, err := ParseJoinMode(input)
		if err != nil || got != want {
			t.Fatalf("%q: got %v, %v", input, got, err)
		}
	}
	if _, err := ParseJoinMode("inner"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestWants(t *testing.T) {
	q := Query{Fields: FieldSelection{Transaction: []string{TransactionFieldHash}}}
	if !q.WantsTransactions() || q.WantsTraces() || q.WantsBlocks() {
		t.Fatalf("unexpected wants for %+v", q)
	}
	q = Query{IncludeTraces: true, Fields: FieldSelection{Block: AllBlockFields()}}
	if !q.WantsTraces() || !q.WantsBlocks() || q.WantsTransactions() {
		t.Fatalf("unexpected wants for %+v", q)
	}
}

func TestProjectLogKeepsTopicPositions(t *testing.T) {
	log := RawLog{
		BlockNumber: 7,
		TxHash:      common.HexToHash("0x01"),
		LogIndex:    2,
		Address:     common.HexToAddress("0x02"),
		Topics:      []common.Hash{common.HexToHash("0xa0"), common.HexToHash("0xa1"), common.HexToHash("0xa2")},
		Data:        []byte{1},
	}

	all := FieldSelection{}.ProjectLog(log)
	if !reflect.DeepEqual(all, log) {
		t.Fatalf("empty selection should keep everything")
	}

	got := FieldSelection{Log: []string{LogFieldTopic2, LogFieldAddress}}.ProjectLog(log)
	want := []common.Hash{{}, {}, common.HexToHash("0xa2")}
	if !reflect.DeepEqual(got.Topics, want) {
		t.Fatalf("topics mismatch: %v", got.Topics)
	}
	if got.Address != log.Address || got.BlockNumber != 0 || got.Data != nil {
		t.Fatalf("unexpected projection: %+v", got)
	}
}

func TestProjectTransactionAndBlock(t *testing.T) {
	to := common.HexToAddress("0x03")
	tx := Transaction{BlockNumber: 1, Hash: common.HexToHash("0x04"), From: common.HexToAddress("0x05"), To: &to, Value: big.NewInt(9)}
	got := FieldSelection{Transaction: []string{TransactionFieldHash, TransactionFieldValue}}.ProjectTransaction(tx)
	if got.Hash != tx.Hash || got.Value.Cmp(tx.Value) != 0 || got.To != nil || got.BlockNumber != 0 {
		t.Fatalf("unexpected transaction projection: %+v", got)
	}

	block := Block{Number: 10, Hash: common.HexToHash("0x06"), Timestamp: 1700000000, TxCount: 3}
	gotBlock := FieldSelection{Block: []string{BlockFieldNumber}}.ProjectBlock(block)
	if gotBlock != (Block{Number: 10}) {
		t.Fatalf("unexpected block projection: %+v", gotBlock)
	}

	trace := Trace{BlockNumber: 1, Type: "call", From: common.HexToAddress("0x07")}
	gotTrace := FieldSelection{Trace: []string{TraceFieldType}}.ProjectTrace(trace)
	if gotTrace.Type != "call" || gotTrace.From != (common.Address{}) {
		t.Fatalf("unexpected trace projection: %+v", gotTrace)
	}
}

func TestPageEmpty(t *testing.T) {
	if !(&Page{NextBlock: 50}).Empty() {
		t.Fatalf("page without records should be empty")
	}
	if (&Page{NextBlock: 50, Blocks: []Block{{}}}).Empty() {
		t.Fatalf("page with a block is not empty")
	}
}
