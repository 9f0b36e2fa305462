package dispatch

import (
	"gossipkv/internal/proto"
	"gossipkv/internal/store"
	"gossipkv/internal/telemetry"
	"gossipkv/internal/transport"
	"gossipkv/internal/wireaddr"
)

// Handle applies a single REQUEST frame to st and sends the matching
// REPLY/READREPLY back to f.From, logging the server-side outcome with
// isCoordinator=false (spec §4.5).
func Handle(self wireaddr.Address, f proto.RequestFrame, st *store.Store, t transport.Transport, sink telemetry.Sink) {
	switch f.Op {
	case proto.OpCreate:
		ok := st.Create(f.Key, f.Value)
		reply(self, f, ok, t)
		logOutcome(sink, proto.OpCreate, ok, self, f.TransID, f.Key, f.Value)

	case proto.OpUpdate:
		ok := st.Update(f.Key, f.Value)
		reply(self, f, ok, t)
		logOutcome(sink, proto.OpUpdate, ok, self, f.TransID, f.Key, f.Value)

	case proto.OpDelete:
		ok := st.Delete(f.Key)
		reply(self, f, ok, t)
		logOutcome(sink, proto.OpDelete, ok, self, f.TransID, f.Key, "")

	case proto.OpRead:
		value, ok := st.Read(f.Key)
		t.Send(self, f.From, transport.LayerKV, []byte(proto.EncodeReadReply(proto.ReadReplyFrame{
			TransID: f.TransID,
			From:    self,
			Value:   value,
		})))
		logOutcome(sink, proto.OpRead, ok, self, f.TransID, f.Key, value)
	}
}

func reply(self wireaddr.Address, f proto.RequestFrame, success bool, t transport.Transport) {
	t.Send(self, f.From, transport.LayerKV, []byte(proto.EncodeReply(proto.ReplyFrame{
		TransID: f.TransID,
		From:    self,
		Success: success,
	})))
}

func logOutcome(sink telemetry.Sink, op proto.Op, ok bool, self wireaddr.Address, transID int64, key, value string) {
	switch op {
	case proto.OpCreate:
		if ok {
			sink.CreateSuccess(self, false, transID, key, value)
		} else {
			sink.CreateFail(self, false, transID, key, value)
		}
	case proto.OpRead:
		if ok {
			sink.ReadSuccess(self, false, transID, key, value)
		} else {
			sink.ReadFail(self, false, transID, key, value)
		}
	case proto.OpUpdate:
		if ok {
			sink.UpdateSuccess(self, false, transID, key, value)
		} else {
			sink.UpdateFail(self, false, transID, key, value)
		}
	case proto.OpDelete:
		if ok {
			sink.DeleteSuccess(self, false, transID, key, value)
		} else {
			sink.DeleteFail(self, false, transID, key, value)
		}
	}
}
