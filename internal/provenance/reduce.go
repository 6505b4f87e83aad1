package provenance

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/tidwall/gjson"

	"c2papreview/pkg/domain"
)

// trainedAlgorithmicMedia 等数字来源类型表明内容由 AI 生成
var aiSourceTypes = []string{
	"trainedAlgorithmicMedia",
	"compositeWithTrainedAlgorithmicMedia",
	"algorithmicMedia",
}

// ErrWorkerDisposed 在已释放的 Worker 上调用 Reduce
var ErrWorkerDisposed = errors.New("reduction worker disposed")

// Reducer 精简步骤的工厂，每次精简都获取一个独占 Worker
type Reducer interface {
	Start() Worker
}

// Worker 精简工作者，使用后必须调用 Dispose 释放
type Worker interface {
	Reduce(ctx context.Context, store *ManifestStore) (*domain.L2Manifest, error)
	Dispose()
}

// L2Reducer 基于后台 goroutine 的精简实现
type L2Reducer struct {
	wg sync.WaitGroup
}

// NewL2Reducer 创建精简器
func NewL2Reducer() *L2Reducer {
	return &L2Reducer{}
}

// Start 启动一个后台 Worker
func (r *L2Reducer) Start() Worker {
	w := &l2Worker{jobs: make(chan reduceJob)}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		w.loop()
	}()
	return w
}

// Wait 等待所有已启动的 Worker 退出
func (r *L2Reducer) Wait() {
	r.wg.Wait()
}

type reduceJob struct {
	store *ManifestStore
	reply chan reduceReply
}

type reduceReply struct {
	manifest *domain.L2Manifest
	err      error
}

type l2Worker struct {
	mu       sync.Mutex
	jobs     chan reduceJob
	disposed bool
	once     sync.Once
}

func (w *l2Worker) loop() {
	for job := range w.jobs {
		m, err := Reduce(job.store)
		job.reply <- reduceReply{manifest: m, err: err}
	}
}

// Reduce 在后台 goroutine 中执行精简
func (w *l2Worker) Reduce(ctx context.Context, store *ManifestStore) (*domain.L2Manifest, error) {
	w.mu.Lock()
	if w.disposed {
		w.mu.Unlock()
		return nil, ErrWorkerDisposed
	}
	job := reduceJob{store: store, reply: make(chan reduceReply, 1)}
	select {
	case w.jobs <- job:
		w.mu.Unlock()
	case <-ctx.Done():
		w.mu.Unlock()
		return nil, ctx.Err()
	}
	select {
	case r := <-job.reply:
		return r.manifest, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Dispose 停止后台 goroutine，可重复调用
func (w *l2Worker) Dispose() {
	w.once.Do(func() {
		w.mu.Lock()
		w.disposed = true
		close(w.jobs)
		w.mu.Unlock()
	})
}

// Reduce 将清单仓库精简为展示结构
func Reduce(store *ManifestStore) (*domain.L2Manifest, error) {
	if store == nil {
		return nil, errors.New("nil manifest store")
	}
	active, ok := store.ActiveManifest()
	if !ok {
		return nil, errors.New("manifest store has no active manifest")
	}

	m := &domain.L2Manifest{
		Label:  store.ActiveLabel(),
		Title:  active.Get("title").String(),
		Format: active.Get("format").String(),
		ClaimGenerator: domain.ClaimGenerator{
			Value:   active.Get("claim_generator").String(),
			Product: claimProduct(active),
		},
		Actions:          []domain.Action{},
		Ingredients:      []domain.Ingredient{},
		ValidationStatus: []domain.ValidationStatus{},
	}

	if sig := active.Get("signature_info"); sig.Exists() {
		m.Signature = &domain.Signature{
			Issuer:       sig.Get("issuer").String(),
			Time:         sig.Get("time").String(),
			SerialNumber: sig.Get("cert_serial_number").String(),
		}
	}

	active.Get("assertions").ForEach(func(_, assertion gjson.Result) bool {
		label := assertion.Get("label").String()
		switch {
		case strings.HasPrefix(label, "c2pa.actions"):
			assertion.Get("data.actions").ForEach(func(_, a gjson.Result) bool {
				action := domain.Action{
					Label:             a.Get("action").String(),
					SoftwareAgent:     softwareAgent(a.Get("softwareAgent")),
					DigitalSourceType: a.Get("digitalSourceType").String(),
					When:              a.Get("when").String(),
				}
				if isAISourceType(action.DigitalSourceType) {
					m.IsAIGenerated = true
				}
				m.Actions = append(m.Actions, action)
				return true
			})
		case label == "stds.schema-org.CreativeWork":
			if m.Producer == "" {
				m.Producer = assertion.Get("data.author.0.name").String()
			}
		}
		return true
	})

	active.Get("ingredients").ForEach(func(_, ing gjson.Result) bool {
		m.Ingredients = append(m.Ingredients, domain.Ingredient{
			Title:            ing.Get("title").String(),
			Format:           ing.Get("format").String(),
			Relationship:     ing.Get("relationship").String(),
			HasManifest:      ing.Get("active_manifest").String() != "" || ing.Get("manifest_data").Exists(),
			ValidationErrors: len(ing.Get("validation_status").Array()),
		})
		return true
	})

	store.ValidationStatus().ForEach(func(_, st gjson.Result) bool {
		m.ValidationStatus = append(m.ValidationStatus, domain.ValidationStatus{
			Code:        st.Get("code").String(),
			URL:         st.Get("url").String(),
			Explanation: st.Get("explanation").String(),
		})
		return true
	})
	return m, nil
}

func claimProduct(active gjson.Result) string {
	if name := active.Get("claim_generator_info.0.name").String(); name != "" {
		return name
	}
	gen := active.Get("claim_generator").String()
	if i := strings.IndexAny(gen, " /"); i > 0 {
		return gen[:i]
	}
	return gen
}

// softwareAgent 可能是字符串，也可能是 {name, version} 对象
func softwareAgent(v gjson.Result) string {
	if v.IsObject() {
		return v.Get("name").String()
	}
	return v.String()
}

func isAISourceType(t string) bool {
	if t == "" {
		return false
	}
	for _, s := range aiSourceTypes {
		if strings.HasSuffix(t, "/"+s) || t == s {
			return true
		}
	}
	return false
}
