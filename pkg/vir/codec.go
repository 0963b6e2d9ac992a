package vir

import (
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrUnknownNode is returned when decoding meets a tag it does not know.
var ErrUnknownNode = errors.New("unknown node tag")

// Node tags. Each node is encoded as an array whose first element is the tag.
const (
	tagConst   = "const"
	tagLocal   = "local"
	tagUnary   = "unop"
	tagBinary  = "binop"
	tagComment = "comment"
	tagLabel   = "label"
	tagAssign  = "assign"
	tagAssert  = "assert"
	tagAssume  = "assume"
	tagHavoc   = "havoc"
	tagIf      = "if"
)

// ExprBox wraps an Expr so it can be used as a msgpack field.
type ExprBox struct {
	Expr Expr
}

// EncodeMsgpack implements msgpack.CustomEncoder.
func (b ExprBox) EncodeMsgpack(enc *msgpack.Encoder) error {
	return EncodeExpr(enc, b.Expr)
}

// DecodeMsgpack implements msgpack.CustomDecoder.
func (b *ExprBox) DecodeMsgpack(dec *msgpack.Decoder) error {
	e, err := DecodeExpr(dec)
	if err != nil {
		return err
	}
	b.Expr = e
	return nil
}

// StmtBox wraps a Stmt so it can be used as a msgpack field.
type StmtBox struct {
	Stmt Stmt
}

// EncodeMsgpack implements msgpack.CustomEncoder.
func (b StmtBox) EncodeMsgpack(enc *msgpack.Encoder) error {
	return EncodeStmt(enc, b.Stmt)
}

// DecodeMsgpack implements msgpack.CustomDecoder.
func (b *StmtBox) DecodeMsgpack(dec *msgpack.Decoder) error {
	s, err := DecodeStmt(dec)
	if err != nil {
		return err
	}
	b.Stmt = s
	return nil
}

// BoxStmts wraps statements for encoding.
func BoxStmts(stmts []Stmt) []StmtBox {
	boxes := make([]StmtBox, len(stmts))
	for i, s := range stmts {
		boxes[i] = StmtBox{Stmt: s}
	}
	return boxes
}

// UnboxStmts is the inverse of BoxStmts. An empty input yields nil.
func UnboxStmts(boxes []StmtBox) []Stmt {
	if len(boxes) == 0 {
		return nil
	}
	stmts := make([]Stmt, len(boxes))
	for i, b := range boxes {
		stmts[i] = b.Stmt
	}
	return stmts
}

// EncodeExpr writes e as a tagged array.
func EncodeExpr(enc *msgpack.Encoder, e Expr) error {
	switch e := e.(type) {
	case Const:
		return encodeTagged(enc, tagConst, string(e.Type), e.Value)
	case Local:
		return encodeTagged(enc, tagLocal, e.Var)
	case UnaryOp:
		if err := enc.EncodeArrayLen(3); err != nil {
			return err
		}
		if err := enc.EncodeString(tagUnary); err != nil {
			return err
		}
		if err := enc.EncodeString(e.Op); err != nil {
			return err
		}
		return EncodeExpr(enc, e.Arg)
	case BinOp:
		if err := enc.EncodeArrayLen(4); err != nil {
			return err
		}
		if err := enc.EncodeString(tagBinary); err != nil {
			return err
		}
		if err := enc.EncodeString(e.Op); err != nil {
			return err
		}
		if err := EncodeExpr(enc, e.Left); err != nil {
			return err
		}
		return EncodeExpr(enc, e.Right)
	default:
		return fmt.Errorf("encoding expression %T: %w", e, ErrUnknownNode)
	}
}

// DecodeExpr reads an expression written by EncodeExpr.
func DecodeExpr(dec *msgpack.Decoder) (Expr, error) {
	n, tag, err := decodeHeader(dec)
	if err != nil {
		return nil, err
	}
	switch tag {
	case tagConst:
		if err := expectLen(tag, n, 3); err != nil {
			return nil, err
		}
		typ, err := dec.DecodeString()
		if err != nil {
			return nil, err
		}
		value, err := dec.DecodeString()
		if err != nil {
			return nil, err
		}
		return Const{Type: Type(typ), Value: value}, nil
	case tagLocal:
		if err := expectLen(tag, n, 2); err != nil {
			return nil, err
		}
		var v LocalVar
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}
		return Local{Var: v}, nil
	case tagUnary:
		if err := expectLen(tag, n, 3); err != nil {
			return nil, err
		}
		op, err := dec.DecodeString()
		if err != nil {
			return nil, err
		}
		arg, err := DecodeExpr(dec)
		if err != nil {
			return nil, err
		}
		return UnaryOp{Op: op, Arg: arg}, nil
	case tagBinary:
		if err := expectLen(tag, n, 4); err != nil {
			return nil, err
		}
		op, err := dec.DecodeString()
		if err != nil {
			return nil, err
		}
		left, err := DecodeExpr(dec)
		if err != nil {
			return nil, err
		}
		right, err := DecodeExpr(dec)
		if err != nil {
			return nil, err
		}
		return BinOp{Op: op, Left: left, Right: right}, nil
	default:
		return nil, fmt.Errorf("decoding expression tag %q: %w", tag, ErrUnknownNode)
	}
}

// EncodeStmt writes s as a tagged array.
func EncodeStmt(enc *msgpack.Encoder, s Stmt) error {
	switch s := s.(type) {
	case Comment:
		return encodeTagged(enc, tagComment, s.Text)
	case Label:
		return encodeTagged(enc, tagLabel, s.Name)
	case Havoc:
		return encodeTagged(enc, tagHavoc, s.Var)
	case Assign:
		if err := enc.EncodeArrayLen(3); err != nil {
			return err
		}
		if err := enc.EncodeString(tagAssign); err != nil {
			return err
		}
		if err := enc.Encode(s.Target); err != nil {
			return err
		}
		return EncodeExpr(enc, s.Value)
	case Assert:
		return encodeExprStmt(enc, tagAssert, s.Expr)
	case Assume:
		return encodeExprStmt(enc, tagAssume, s.Expr)
	case If:
		if err := enc.EncodeArrayLen(4); err != nil {
			return err
		}
		if err := enc.EncodeString(tagIf); err != nil {
			return err
		}
		if err := EncodeExpr(enc, s.Guard); err != nil {
			return err
		}
		if err := enc.Encode(BoxStmts(s.Then)); err != nil {
			return err
		}
		return enc.Encode(BoxStmts(s.Else))
	default:
		return fmt.Errorf("encoding statement %T: %w", s, ErrUnknownNode)
	}
}

// DecodeStmt reads a statement written by EncodeStmt.
func DecodeStmt(dec *msgpack.Decoder) (Stmt, error) {
	n, tag, err := decodeHeader(dec)
	if err != nil {
		return nil, err
	}
	switch tag {
	case tagComment, tagLabel:
		if err := expectLen(tag, n, 2); err != nil {
			return nil, err
		}
		text, err := dec.DecodeString()
		if err != nil {
			return nil, err
		}
		if tag == tagLabel {
			return Label{Name: text}, nil
		}
		return Comment{Text: text}, nil
	case tagHavoc:
		if err := expectLen(tag, n, 2); err != nil {
			return nil, err
		}
		var v LocalVar
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}
		return Havoc{Var: v}, nil
	case tagAssign:
		if err := expectLen(tag, n, 3); err != nil {
			return nil, err
		}
		var target LocalVar
		if err := dec.Decode(&target); err != nil {
			return nil, err
		}
		value, err := DecodeExpr(dec)
		if err != nil {
			return nil, err
		}
		return Assign{Target: target, Value: value}, nil
	case tagAssert, tagAssume:
		if err := expectLen(tag, n, 2); err != nil {
			return nil, err
		}
		e, err := DecodeExpr(dec)
		if err != nil {
			return nil, err
		}
		if tag == tagAssert {
			return Assert{Expr: e}, nil
		}
		return Assume{Expr: e}, nil
	case tagIf:
		if err := expectLen(tag, n, 4); err != nil {
			return nil, err
		}
		guard, err := DecodeExpr(dec)
		if err != nil {
			return nil, err
		}
		var then, els []StmtBox
		if err := dec.Decode(&then); err != nil {
			return nil, err
		}
		if err := dec.Decode(&els); err != nil {
			return nil, err
		}
		return If{Guard: guard, Then: UnboxStmts(then), Else: UnboxStmts(els)}, nil
	default:
		return nil, fmt.Errorf("decoding statement tag %q: %w", tag, ErrUnknownNode)
	}
}

func encodeTagged(enc *msgpack.Encoder, tag string, fields ...interface{}) error {
	if err := enc.EncodeArrayLen(len(fields) + 1); err != nil {
		return err
	}
	if err := enc.EncodeString(tag); err != nil {
		return err
	}
	for _, f := range fields {
		if err := enc.Encode(f); err != nil {
			return err
		}
	}
	return nil
}

func encodeExprStmt(enc *msgpack.Encoder, tag string, e Expr) error {
	if err := enc.EncodeArrayLen(2); err != nil {
		return err
	}
	if err := enc.EncodeString(tag); err != nil {
		return err
	}
	return EncodeExpr(enc, e)
}

func decodeHeader(dec *msgpack.Decoder) (int, string, error) {
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return 0, "", err
	}
	if n < 1 {
		return 0, "", fmt.Errorf("empty node: %w", ErrUnknownNode)
	}
	tag, err := dec.DecodeString()
	if err != nil {
		return 0, "", err
	}
	return n, tag, nil
}

func expectLen(tag string, got, want int) error {
	if got != want {
		return fmt.Errorf("node %q has %d fields, want %d", tag, got, want)
	}
	return nil
}
