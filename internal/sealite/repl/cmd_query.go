package repl

import (
	"encoding/hex"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sealite/sealite"
	"github.com/sealite/sealite/internal/log"
	"github.com/sealite/sealite/internal/styled"
)

// maxBlobPreview is the number of bytes of a binary value shown in a cell.
const maxBlobPreview = 16

func cmdQuery(r *Repl, input string) {
	switch detectQueryType(input) {
	case queryTypeBegin:
		if r.tx != nil {
			r.printError(errors.New("a transaction is already open, commit or roll it back first"))
			return
		}
		tx, err := r.DB.Begin(r.ctx)
		if err != nil {
			r.printError(err)
			return
		}
		r.setTx(tx)
		r.Logger.DebugNs(log.NsShell, "transaction started", log.KV{"txId": r.txId})
		r.printOK("Transaction started")

	case queryTypeCommit:
		if r.tx == nil {
			r.printError(errors.New("no transaction is open"))
			return
		}
		err := r.tx.Commit()
		r.setTx(nil)
		if err != nil {
			r.printError(err)
			return
		}
		r.printOK("Transaction committed")

	case queryTypeRollback:
		if r.tx == nil {
			r.printError(errors.New("no transaction is open"))
			return
		}
		err := r.tx.Rollback()
		r.setTx(nil)
		if err != nil {
			r.printError(err)
			return
		}
		r.printOK("Transaction rolled back")

	case queryTypeRead:
		r.printRead(input)

	default:
		res, err := sealite.Execute(r.ctx, r.querier(), input)
		if err != nil {
			r.printError(err)
			return
		}

		tw := styled.NewTableWriter()
		tw.AppendHeader(table.Row{"-", "Rows Affected", "Last Insert ID"})
		tw.AppendRow(table.Row{"OK", res.RowsAffected, res.LastInsertID})
		fmt.Fprintln(r.Out, tw.Render())
	}
}

// printRead runs a read query in the current transaction, if any, and
// renders its rows.
func (r *Repl) printRead(query string, args ...any) {
	result, err := sealite.QueryTable(r.ctx, r.querier(), query, args...)
	if err != nil {
		r.printError(err)
		return
	}

	tw := styled.NewTableWriter()
	header := table.Row{}
	for _, col := range result.Columns {
		header = append(header, col)
	}
	tw.AppendHeader(header)

	for _, values := range result.Rows {
		row := table.Row{}
		for _, value := range values {
			row = append(row, formatValue(value))
		}
		tw.AppendRow(row)
	}

	fmt.Fprintln(r.Out, tw.Render())
	styled.DimmedColor().Fprintf(r.Out, "%d row(s)\n", len(result.Rows))
}

func (r *Repl) printOK(message string) {
	fmt.Fprintln(r.Out, styled.NewMessageTable("OK", message).Render())
}

func (r *Repl) printError(err error) {
	r.err = err
	fmt.Fprintln(r.Out, styled.NewMessageTable("Error", r.cleanError(err.Error())).Render())
}

// formatValue renders a column value for a table cell.
func formatValue(value any) any {
	switch v := value.(type) {
	case nil:
		return "NULL"
	case []byte:
		if utf8.Valid(v) {
			return string(v)
		}
		if len(v) > maxBlobPreview {
			return fmt.Sprintf("x'%s…' (%d bytes)", hex.EncodeToString(v[:maxBlobPreview]), len(v))
		}
		return fmt.Sprintf("x'%s'", hex.EncodeToString(v))
	default:
		return v
	}
}
