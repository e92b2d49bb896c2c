package draft

// Tab 表单标签页
type Tab string

const (
	TabBasic   Tab = "basic"
	TabPricing Tab = "pricing"
	TabDetails Tab = "details"
	TabTags    Tab = "tags"
)

// Tabs 标签页固定顺序
var Tabs = []Tab{TabBasic, TabPricing, TabDetails, TabTags}

// TabStepper 线性标签页导航
// Next/Previous 每次只移动一格，在两端饱和；标签页之间不做校验
type TabStepper struct {
	index int
}

func (s *TabStepper) Current() Tab {
	return Tabs[s.index]
}

func (s *TabStepper) Index() int {
	return s.index
}

func (s *TabStepper) Next() Tab {
	if s.index < len(Tabs)-1 {
		s.index++
	}
	return s.Current()
}

func (s *TabStepper) Previous() Tab {
	if s.index > 0 {
		s.index--
	}
	return s.Current()
}

func (s *TabStepper) IsFirst() bool {
	return s.index == 0
}

// IsLast 只有最后一个标签页提供提交操作
func (s *TabStepper) IsLast() bool {
	return s.index == len(Tabs)-1
}
