package tokens

import (
	"encoding"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

var (
	jsonMarshalerType = reflect.TypeFor[json.Marshaler]()
	textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()
)

func builtinStrategies() []Strategy {
	return []Strategy{stringStrategy(), collectionStrategy(), objectStrategy()}
}

func stringStrategy() Strategy {
	return Strategy{
		Name:     "string",
		Priority: PriorityString,
		CanHandle: func(v reflect.Value) bool {
			switch v.Kind() {
			case reflect.String:
				return true
			case reflect.Slice:
				return v.Type().Elem().Kind() == reflect.Uint8
			}
			return false
		},
		Estimate: func(v reflect.Value, w *Walker) int {
			if v.Kind() == reflect.String {
				return w.Text(v.String())
			}
			n := utf8.RuneCount(v.Bytes())
			if n == 0 {
				return 0
			}
			return CeilDiv(n, w.est.cfg.CharsPerToken) + w.est.cfg.StringOverhead
		},
	}
}

func collectionStrategy() Strategy {
	return Strategy{
		Name:     "collection",
		Priority: PriorityCollection,
		CanHandle: func(v reflect.Value) bool {
			switch v.Kind() {
			case reflect.Slice, reflect.Array, reflect.Map:
				return true
			}
			return false
		},
		Estimate: estimateCollection,
	}
}

func estimateCollection(v reflect.Value, w *Walker) int {
	n := v.Len()
	if n == 0 {
		return 0
	}

	leave, ok := w.enter(v)
	if !ok {
		return 0
	}
	defer leave()

	overhead := w.ItemOverhead()

	var item func(i int) int
	if v.Kind() == reflect.Map {
		keys := sortedKeys(v)
		item = func(i int) int {
			return w.Estimate(keys[i]) + w.Estimate(v.MapIndex(keys[i])) + overhead
		}
	} else {
		item = func(i int) int {
			return w.Estimate(v.Index(i)) + overhead
		}
	}

	cfg := w.est.cfg
	if n <= cfg.SampleThreshold {
		total := 0
		for i := 0; i < n; i++ {
			total += item(i)
		}
		return total
	}

	// The first SampleThreshold items are costed exactly and every other
	// item costs at least its overhead. That floor keeps a collection at
	// least as expensive as any prefix that was estimated without sampling.
	floor := 0
	for i := 0; i < cfg.SampleThreshold; i++ {
		floor += item(i)
	}
	floor += (n - cfg.SampleThreshold) * overhead

	indices := sampleIndices(n, cfg.SampleSize, cfg.SampleSeed)
	sampled := 0
	for _, i := range indices {
		sampled += item(i)
	}
	return max(CeilDiv(sampled*n, len(indices)), floor)
}

// sortedKeys orders map keys so that sampling is reproducible.
func sortedKeys(v reflect.Value) []reflect.Value {
	keys := v.MapKeys()
	if v.Type().Key().Kind() == reflect.String {
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		return keys
	}

	names := make([]string, len(keys))
	for i, k := range keys {
		if k.CanInterface() {
			names[i] = fmt.Sprint(k.Interface())
		} else {
			names[i] = k.String()
		}
	}
	sort.Sort(keySorter{keys: keys, names: names})
	return keys
}

type keySorter struct {
	keys  []reflect.Value
	names []string
}

func (s keySorter) Len() int           { return len(s.keys) }
func (s keySorter) Less(i, j int) bool { return s.names[i] < s.names[j] }
func (s keySorter) Swap(i, j int) {
	s.keys[i], s.keys[j] = s.keys[j], s.keys[i]
	s.names[i], s.names[j] = s.names[j], s.names[i]
}

func objectStrategy() Strategy {
	return Strategy{
		Name:      "object",
		Priority:  PriorityObject,
		CanHandle: func(reflect.Value) bool { return true },
		Estimate:  estimateObject,
	}
}

func estimateObject(v reflect.Value, w *Walker) int {
	switch v.Kind() {
	case reflect.Interface:
		return w.Estimate(v.Elem())

	case reflect.Pointer:
		if implementsMarshaler(v.Type()) {
			return estimateJSON(v, w)
		}
		leave, ok := w.enter(v)
		if !ok {
			return 0
		}
		defer leave()
		return w.Estimate(v.Elem())

	case reflect.Bool:
		return w.Text(strconv.FormatBool(v.Bool()))

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return w.Text(strconv.FormatInt(v.Int(), 10))

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return w.Text(strconv.FormatUint(v.Uint(), 10))

	case reflect.Float32, reflect.Float64:
		return w.Text(strconv.FormatFloat(v.Float(), 'g', -1, 64))

	case reflect.Struct:
		if implementsMarshaler(v.Type()) {
			return estimateJSON(v, w)
		}
		return estimateStruct(v, w)
	}

	return estimateJSON(v, w)
}

// estimateStruct walks exported fields the way encoding/json would emit them.
func estimateStruct(v reflect.Value, w *Walker) int {
	t := v.Type()
	overhead := w.ItemOverhead()
	total := 0

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}

		name, omitEmpty, skip := jsonFieldName(f)
		if skip {
			continue
		}

		fv := v.Field(i)
		if omitEmpty && fv.IsZero() {
			continue
		}

		total += w.Text(name) + w.Estimate(fv) + overhead
	}
	return total
}

func jsonFieldName(f reflect.StructField) (name string, omitEmpty, skip bool) {
	tag := f.Tag.Get("json")
	if tag == "-" {
		return "", false, true
	}

	name = f.Name
	if tag != "" {
		parts := strings.Split(tag, ",")
		if parts[0] != "" {
			name = parts[0]
		}
		for _, opt := range parts[1:] {
			if opt == "omitempty" || opt == "omitzero" {
				omitEmpty = true
			}
		}
	}
	return name, omitEmpty, false
}

func implementsMarshaler(t reflect.Type) bool {
	if t.Implements(jsonMarshalerType) || t.Implements(textMarshalerType) {
		return true
	}
	if t.Kind() != reflect.Pointer {
		pt := reflect.PointerTo(t)
		return pt.Implements(jsonMarshalerType) || pt.Implements(textMarshalerType)
	}
	return false
}

// estimateJSON costs a leaf by its JSON encoding. Values that cannot be
// encoded cost FallbackCost without aborting the surrounding walk.
func estimateJSON(v reflect.Value, w *Walker) int {
	if !v.CanInterface() {
		return w.FallbackCost()
	}

	data, err := json.Marshal(v.Interface())
	if err != nil {
		w.est.logger.Debug("value not serializable, using fallback cost",
			"type", v.Type().String(),
			"error", err,
		)
		return w.FallbackCost()
	}
	return w.Text(string(data))
}
