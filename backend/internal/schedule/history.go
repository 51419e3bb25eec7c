package schedule

// DefaultHistoryDepth 撤销栈默认深度
const DefaultHistoryDepth = 10

// History 单个数据集的撤销/重做快照栈
//
// 每个快照都是深拷贝；新的变更会清空重做栈，撤销栈超过深度时丢弃最旧快照。
type History struct {
	depth int
	undo  [][]Record
	redo  [][]Record
}

// NewHistory 创建快照栈
func NewHistory(depth int) *History {
	if depth <= 0 {
		depth = DefaultHistoryDepth
	}
	return &History{depth: depth}
}

// Save 在变更前记录当前状态
func (h *History) Save(current []Record) {
	h.undo = append(h.undo, CloneRecords(current))
	if len(h.undo) > h.depth {
		h.undo = h.undo[len(h.undo)-h.depth:]
	}
	h.redo = nil
}

// Undo 返回上一个状态，并把 current 压入重做栈
func (h *History) Undo(current []Record) ([]Record, bool) {
	if len(h.undo) == 0 {
		return nil, false
	}
	prev := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, CloneRecords(current))
	return CloneRecords(prev), true
}

// Redo 返回下一个状态，并把 current 压入撤销栈
func (h *History) Redo(current []Record) ([]Record, bool) {
	if len(h.redo) == 0 {
		return nil, false
	}
	next := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, CloneRecords(current))
	return CloneRecords(next), true
}

// CanUndo 是否可撤销
func (h *History) CanUndo() bool { return len(h.undo) > 0 }

// CanRedo 是否可重做
func (h *History) CanRedo() bool { return len(h.redo) > 0 }
