package filter

import (
	"net/url"
	"sync"
	"time"
)

// DefaultDebounce は検索語入力のデバウンス窓の既定値。
const DefaultDebounce = 500 * time.Millisecond

// Navigator はロケーション変更の通知先。
// Pushの失敗・順序制御は呼び出し先（外部のデータ取得側）の責務であり、
// Coordinatorからはファイアアンドフォーゲットで呼ぶ。
type Navigator interface {
	Push(query url.Values)
}

// CoordinatorState はCoordinatorの状態機械の状態を表す。
type CoordinatorState string

const (
	// StateIdle は入力待ちの状態。
	StateIdle CoordinatorState = "idle"
	// StatePendingDebounce は検索語のデバウンス窓が開いている状態。
	StatePendingDebounce CoordinatorState = "pending_debounce"
)

// Coordinator は一覧ビューのフィルタ状態を保持し、検索語をデバウンスし、
// ロケーションとの同期とページネーションのリセットを判断する。
//
// ネットワーク呼び出しは一切行わない。次にどのクエリを発行すべきかを
// ロケーション変更によって示すだけである。UIイベントループを想定した
// 設計だが、タイマーコールバックが別ゴルーチンで走るためロックで守る。
type Coordinator struct {
	mu sync.Mutex

	nav      Navigator
	debounce time.Duration

	location      url.Values // 最後に観測したロケーションのクエリ
	desired       State      // 有効化済みのフィルタ三つ組
	pendingSearch string     // デバウンス窓中の未確定検索語
	timer         *time.Timer
	state         CoordinatorState
}

// NewCoordinator は現在のロケーションのクエリから初期化した
// Coordinatorを生成する。debounceが0以下の場合は既定値を使う。
func NewCoordinator(nav Navigator, initial url.Values, debounce time.Duration) *Coordinator {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	loc := cloneValues(initial)
	desired := ParseValues(loc)
	return &Coordinator{
		nav:           nav,
		debounce:      debounce,
		location:      loc,
		desired:       desired,
		pendingSearch: desired.SearchTerm,
		state:         StateIdle,
	}
}

// SetSearchTerm は検索欄のキーストロークを受け付ける。
// 打鍵のたびにデバウンス窓を開き直す（スロットルではなくデバウンス:
// 連打の最後の1回だけが発火する）。窓が閉じた時点の値が有効な検索語になる。
func (c *Coordinator) SetSearchTerm(term string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pendingSearch = term
	c.state = StatePendingDebounce

	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce, c.commitSearch)
}

// commitSearch はデバウンス窓の満了時に未確定検索語を有効化する。
func (c *Coordinator) commitSearch() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = StateIdle
	c.desired.SearchTerm = c.pendingSearch
	c.syncLocked()
}

// SetCategory はカテゴリフィルタを即時に有効化する。デバウンスしない。
// 空文字は番兵値"all"として扱う。
func (c *Coordinator) SetCategory(category string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if category == "" {
		category = CategoryAll
	}
	c.desired.Category = category
	c.syncLocked()
}

// SetCourtOnly は裁判所紐付きフィルタを即時に有効化する。デバウンスしない。
func (c *Coordinator) SetCourtOnly(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.desired.CourtOnly = on
	c.syncLocked()
}

// OnLocationChange は外部ナビゲーション後に現在のロケーションを
// 再読み込みし、フィルタ状態をロケーション側に合わせる。
// 開いているデバウンス窓は破棄される。
func (c *Coordinator) OnLocationChange(q url.Values) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timer != nil {
		c.timer.Stop()
	}
	c.state = StateIdle
	c.location = cloneValues(q)
	c.desired = ParseValues(c.location)
	c.pendingSearch = c.desired.SearchTerm
}

// Stop は開いているデバウンス窓を破棄する。ビューのアンマウント時に呼ぶ。
func (c *Coordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timer != nil {
		c.timer.Stop()
	}
	c.state = StateIdle
}

// State は状態機械の現在状態を返す。テストおよびデバッグ用。
func (c *Coordinator) State() CoordinatorState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Desired は有効化済みのフィルタ三つ組を返す。テスト用。
func (c *Coordinator) Desired() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.desired
}

// syncLocked は有効フィルタとロケーションを比較し、必要ならナビゲートする。
//
// ロケーション側の三つ組と等しい場合は何もしない。これにより
// リマウント直後の同期が既存のpageパラメータを誤って消すことを防ぐ。
// 異なる場合はロケーションの複製にフィルタを書き込み（pageは除去）、
// Navigatorへ渡す。呼び出し元がc.muを保持していること。
func (c *Coordinator) syncLocked() {
	if ParseValues(c.location) == c.desired {
		return
	}

	params := cloneValues(c.location)
	c.desired.Apply(params)
	c.location = params

	c.nav.Push(cloneValues(params))
}
